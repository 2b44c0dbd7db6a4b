package apptype

// AskArgs represents the arguments for the ask_database tool
type AskArgs struct {
	Message string `json:"message" jsonschema:"The question to answer from the recommendation database, in German or English."`
}

// SyncArgs represents the arguments for the sync_data tool
type SyncArgs struct{}

// SyncResult reports a completed ETL run
type SyncResult struct {
	Projects   int   `json:"projects"`
	Users      int   `json:"users"`
	Tags       int   `json:"tags"`
	DurationMs int64 `json:"durationMs"`
}

// RecentChatsArgs represents the arguments for the recent_chats tool
type RecentChatsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of exchanges to return (default 20)."`
}

// ChatLogResult lists persisted exchanges, newest first
type ChatLogResult struct {
	Entries []ChatLogEntry `json:"entries"`
}

// HealthArgs represents the arguments for the health_check tool
type HealthArgs struct{}

// HealthResult reports service identity and database reachability
type HealthResult struct {
	Name      string      `json:"name"`
	Version   string      `json:"version"`
	Revision  string      `json:"revision,omitempty"`
	BuildDate string      `json:"buildDate,omitempty"`
	Database  string      `json:"database"`
	Rows      TableCounts `json:"rows"`
}
