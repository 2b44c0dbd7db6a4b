package database

import (
	"context"
	"fmt"
	"time"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

const (
	defaultChatLimit = 20
	maxChatLimit     = 200

	sqliteTimestamp = "2006-01-02 15:04:05"
)

// SaveChat stores one question/answer exchange and returns its row id
func (dm *DBManager) SaveChat(ctx context.Context, entry apptype.ChatLogEntry) (int64, error) {
	done := metrics.TimeOp("save_chat")
	success := false
	defer func() { done(success) }()

	res, err := dm.db.ExecContext(ctx,
		"INSERT INTO chat_log (request_id, prompt, response, language) VALUES (?, ?, ?, ?)",
		entry.RequestID, entry.Prompt, entry.Response, entry.Language)
	if err != nil {
		return 0, fmt.Errorf("failed to save chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read chat id: %w", err)
	}
	success = true
	return id, nil
}

// RecentChats returns the latest exchanges, newest first. A non-positive
// limit selects the default; large limits are capped.
func (dm *DBManager) RecentChats(ctx context.Context, limit int) ([]apptype.ChatLogEntry, error) {
	done := metrics.TimeOp("recent_chats")
	success := false
	defer func() { done(success) }()

	if limit <= 0 {
		limit = defaultChatLimit
	}
	if limit > maxChatLimit {
		limit = maxChatLimit
	}

	// Text columns are read as blobs so the driver leaves date-like prompts alone.
	rows, err := dm.db.QueryContext(ctx, `SELECT id, CAST(COALESCE(request_id, '') AS BLOB),
        CAST(prompt AS BLOB), CAST(response AS BLOB), CAST(COALESCE(language, '') AS BLOB), created_at
        FROM chat_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat log: %w", err)
	}
	defer rows.Close()

	entries := make([]apptype.ChatLogEntry, 0, limit)
	for rows.Next() {
		var (
			e       apptype.ChatLogEntry
			created any
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Prompt, &e.Response, &e.Language, &created); err != nil {
			return nil, fmt.Errorf("failed to scan chat log: %w", err)
		}
		e.CreatedAt = rfc3339(created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	success = true
	return entries, nil
}

// rfc3339 formats a created_at value. The driver usually yields time.Time;
// plain text in the SQLite layout is parsed as UTC.
func rfc3339(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case string, []byte:
		ts, err := time.ParseInLocation(sqliteTimestamp, textValue(x), time.UTC)
		if err != nil {
			return ""
		}
		return ts.Format(time.RFC3339)
	default:
		return ""
	}
}
