package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/config"
)

func setupTestDB(t *testing.T) *DBManager {
	t.Helper()
	cfg := config.DefaultConfig().Database
	// A shared-cache memory database lives as long as one connection is open,
	// so every test gets its own name and a single pooled connection.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg.URL = fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	cfg.MaxOpenConns = 1
	db, err := NewDBManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	return db
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func sampleDataset() Dataset {
	return Dataset{
		Tags: []TagRow{
			{ID: "t1", Name: "AI", Type: "topic", CreatedAt: nullString("2024-01-02 03:04:05")},
			{ID: "t2", Name: "Robotics", Type: "topic"},
		},
		Users: []UserRow{{
			ID: "u1", FirstName: "Anna", LastName: "Schmidt", Email: "anna@example.org",
			InterestedTags: `["AI"]`, InterestedCourses: `[]`, StudyPrograms: `["Informatik"]`,
		}},
		Projects: []ProjectRow{{
			ID: "p1", Title: "Chatbot", Tags: `["t1"]`, OwnerID: nullString("u1"),
			Links: `[]`, Attachments: `[]`, CreatedAt: nullString("2024-05-06 07:08:09"),
		}},
	}
}

func TestNewDBManagerCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	names, err := db.Engine().TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Projects", "Tags", "Users", "chat_log"}, names)

	require.NoError(t, db.Ping(ctx))
	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, apptype.TableCounts{}, counts)
}

func TestReplaceAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	counts, err := db.ReplaceAll(ctx, sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, apptype.TableCounts{Projects: 1, Users: 1, Tags: 2}, counts)

	var (
		owner   string
		created any
	)
	err = db.DB().QueryRowContext(ctx, "SELECT owner_id, createdAt FROM Projects WHERE _id = 'p1'").Scan(&owner, &created)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, "2024-05-06 07:08:09", textValue(created))

	var tagCreated sql.NullString
	err = db.DB().QueryRowContext(ctx, "SELECT createdAt FROM Tags WHERE _id = 't2'").Scan(&tagCreated)
	require.NoError(t, err)
	assert.False(t, tagCreated.Valid)

	// a second run replaces rather than appends
	next := Dataset{Tags: []TagRow{{ID: "t9", Name: "IoT"}}}
	counts, err = db.ReplaceAll(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, apptype.TableCounts{Tags: 1}, counts)
}

func TestReplaceAllDuplicateIDsUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	data := Dataset{Tags: []TagRow{{ID: "t1", Name: "old"}, {ID: "t1", Name: "new"}}}
	counts, err := db.ReplaceAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Tags)

	var name string
	require.NoError(t, db.DB().QueryRowContext(ctx, "SELECT name FROM Tags WHERE _id = 't1'").Scan(&name))
	assert.Equal(t, "new", name)
}

func TestReplaceAllRollsBackOnInvalidRecord(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceAll(ctx, sampleDataset())
	require.NoError(t, err)

	bad := sampleDataset()
	bad.Projects = append(bad.Projects, ProjectRow{Title: "no id"})
	_, err = db.ReplaceAll(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidRecord)

	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, apptype.TableCounts{Projects: 1, Users: 1, Tags: 2}, counts)
}

func TestSaveAndRecentChats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := db.SaveChat(ctx, apptype.ChatLogEntry{
			RequestID: fmt.Sprintf("req-%d", i),
			Prompt:    fmt.Sprintf("question %d", i),
			Response:  `{"message":"ok","projects":[],"users":[]}`,
			Language:  "en",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), id)
	}

	entries, err := db.RecentChats(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "question 3", entries[0].Prompt)
	assert.Equal(t, "req-3", entries[0].RequestID)
	assert.Equal(t, "question 2", entries[1].Prompt)
	require.NotEmpty(t, entries[0].CreatedAt)
	_, err = time.Parse(time.RFC3339, entries[0].CreatedAt)
	assert.NoError(t, err)

	all, err := db.RecentChats(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDateLikeTextReadsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	data := Dataset{Projects: []ProjectRow{{
		ID: "p1", Title: "2024-05-06", Tags: `[]`, Links: `[]`, Attachments: `[]`,
		CreatedAt: nullString("2024-05-06 07:08:09"),
	}}}
	_, err := db.ReplaceAll(ctx, data)
	require.NoError(t, err)

	_, rows, err := db.Engine().Query(ctx, "SELECT title, createdAt FROM Projects")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// the driver parses date-only text too, so such a title gains a clock
	assert.Equal(t, "2024-05-06 00:00:00", rows[0][0])
	assert.Equal(t, "2024-05-06 07:08:09", rows[0][1])

	_, err = db.SaveChat(ctx, apptype.ChatLogEntry{RequestID: "r1", Prompt: "2024-05-06", Response: "{}", Language: "en"})
	require.NoError(t, err)
	entries, err := db.RecentChats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-05-06", entries[0].Prompt)
	require.NotEmpty(t, entries[0].CreatedAt)
	ts, err := time.Parse(time.RFC3339, entries[0].CreatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Hour)
}

func TestTextValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "", textValue(nil))
	assert.Equal(t, "abc", textValue("abc"))
	assert.Equal(t, "abc", textValue([]byte("abc")))
	assert.Equal(t, "2024-01-02 03:04:05", textValue(ts))
	assert.Equal(t, "42", textValue(int64(42)))
	assert.Equal(t, "1.5", textValue(1.5))
	assert.Equal(t, "2024-01-02T03:04:05Z", rfc3339(ts))
	assert.Equal(t, "2024-01-02T03:04:05Z", rfc3339("2024-01-02 03:04:05"))
	assert.Equal(t, "", rfc3339(nil))
}

func TestEngineQueryAndTableInfo(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, err := db.ReplaceAll(ctx, sampleDataset())
	require.NoError(t, err)

	engine := db.Engine()
	assert.Equal(t, "sqlite", engine.Dialect())

	cols, rows, err := engine.Query(ctx, "SELECT _id, createdAt FROM Tags ORDER BY _id")
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "createdAt"}, cols)
	assert.Equal(t, [][]string{{"t1", "2024-01-02 03:04:05"}, {"t2", ""}}, rows)

	ddl, err := engine.TableInfo(ctx, "Projects")
	require.NoError(t, err)
	assert.Contains(t, ddl, "owner_id")

	_, err = engine.TableInfo(ctx, "Missing")
	assert.Error(t, err)

	_, _, err = engine.Query(ctx, "SELECT * FROM nope")
	assert.Error(t, err)

	require.NoError(t, engine.Close())
	require.NoError(t, db.Ping(ctx))
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("file:./recsys.db", "secret")
	require.NoError(t, err)
	assert.Equal(t, "file:./recsys.db", dsn)

	dsn, err = buildDSN("libsql://db.example.org", "secret")
	require.NoError(t, err)
	assert.Equal(t, "libsql://db.example.org?authToken=secret", dsn)

	dsn, err = buildDSN("libsql://db.example.org", "")
	require.NoError(t, err)
	assert.Equal(t, "libsql://db.example.org", dsn)

	_, err = buildDSN("  ", "")
	assert.Error(t, err)
}
