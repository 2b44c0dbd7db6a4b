package apptype

import "encoding/json"

// ChatRequest is the body accepted by the chatbot endpoint
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply wraps the compact JSON answer as a string, the shape existing
// frontends consume.
type ChatReply struct {
	Response string `json:"response"`
}

// ChatResponse is the constrained shape the agent is instructed to answer in
type ChatResponse struct {
	Message  string       `json:"message" jsonschema:"Answer text in the language of the question."`
	Projects []ProjectRef `json:"projects" jsonschema:"Projects relevant to the question."`
	Users    []UserRef    `json:"users" jsonschema:"People relevant to the question."`
}

// ProjectRef is the subset of a project the chatbot may reveal
type ProjectRef struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

// UserRef is the subset of a user the chatbot may reveal
type UserRef struct {
	ID             string   `json:"_id"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	InterestedTags []string `json:"interestedTags"`
}

// ChatLogEntry is one persisted question/answer exchange
type ChatLogEntry struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId,omitempty"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Language  string `json:"language,omitempty"`
	CreatedAt string `json:"createdAt"` // RFC 3339, UTC
}

// Tag is a tag record as served by the remote API
type Tag struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	CreatedAt *string `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt"`
}

// User is a user record as served by the remote API
type User struct {
	ID                string          `json:"_id"`
	FirstName         string          `json:"firstName"`
	LastName          string          `json:"lastName"`
	Email             string          `json:"email"`
	Username          string          `json:"username"`
	Status            string          `json:"status"`
	UserType          string          `json:"userType"`
	InterestedTags    json.RawMessage `json:"interestedTags"`
	InterestedCourses json.RawMessage `json:"interestedCourses"`
	StudyPrograms     json.RawMessage `json:"studyPrograms"`
	IsBlockedByAdmin  bool            `json:"isBlockedByAdmin"`
	CreatedAt         *string         `json:"createdAt"`
	UpdatedAt         *string         `json:"updatedAt"`
}

// Project is a project record as served by the remote API. Owner is either
// a populated user object or a bare id.
type Project struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Tags        json.RawMessage `json:"tags"`
	Owner       json.RawMessage `json:"owner"`
	IsDraft     bool            `json:"isDraft"`
	Links       json.RawMessage `json:"links"`
	Attachments json.RawMessage `json:"attachments"`
	CreatedAt   *string         `json:"createdAt"`
	UpdatedAt   *string         `json:"updatedAt"`
}

// TableCounts reports rows per synced table
type TableCounts struct {
	Projects int `json:"projects"`
	Users    int `json:"users"`
	Tags     int `json:"tags"`
}
