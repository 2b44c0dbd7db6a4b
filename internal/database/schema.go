package database

// Table names as seen by the SQL agent. The remote API's camelCase field
// names are kept as column names so answers can quote them verbatim.
// Timestamps are TEXT in "YYYY-MM-DD HH:MM:SS" form; Engine.Query prints the
// driver's time.Time values back in that layout.
const (
	tableTags     = "Tags"
	tableUsers    = "Users"
	tableProjects = "Projects"
	tableChatLog  = "chat_log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS Tags (
        _id TEXT PRIMARY KEY,
        name TEXT,
        type TEXT,
        createdAt TEXT,
        updatedAt TEXT
    )`,

	`CREATE TABLE IF NOT EXISTS Users (
        _id TEXT PRIMARY KEY,
        firstName TEXT,
        lastName TEXT,
        email TEXT,
        username TEXT,
        status TEXT,
        userType TEXT,
        interestedTags TEXT,
        interestedCourses TEXT,
        studyPrograms TEXT,
        isBlockedByAdmin BOOLEAN NOT NULL DEFAULT 0,
        createdAt TEXT,
        updatedAt TEXT
    )`,

	// tags, links and attachments hold JSON arrays
	`CREATE TABLE IF NOT EXISTS Projects (
        _id TEXT PRIMARY KEY,
        title TEXT,
        description TEXT,
        tags TEXT,
        owner_id TEXT,
        isDraft BOOLEAN NOT NULL DEFAULT 0,
        links TEXT,
        attachments TEXT,
        createdAt TEXT,
        updatedAt TEXT
    )`,

	`CREATE TABLE IF NOT EXISTS chat_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT,
        prompt TEXT NOT NULL,
        response TEXT NOT NULL,
        language TEXT,
        created_at TEXT DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON Projects(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_created_at ON Projects(createdAt)`,
	`CREATE INDEX IF NOT EXISTS idx_users_last_name ON Users(lastName)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_name ON Tags(name)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_log_created_at ON chat_log(created_at)`,
}
