package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

// TagRow is a tag ready for storage
type TagRow struct {
	ID        string
	Name      string
	Type      string
	CreatedAt sql.NullString
	UpdatedAt sql.NullString
}

// UserRow is a user ready for storage. List fields hold JSON arrays.
type UserRow struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	Username          string
	Status            string
	UserType          string
	InterestedTags    string
	InterestedCourses string
	StudyPrograms     string
	IsBlockedByAdmin  bool
	CreatedAt         sql.NullString
	UpdatedAt         sql.NullString
}

// ProjectRow is a project ready for storage. List fields hold JSON arrays.
type ProjectRow struct {
	ID          string
	Title       string
	Description string
	Tags        string
	OwnerID     sql.NullString
	IsDraft     bool
	Links       string
	Attachments string
	CreatedAt   sql.NullString
	UpdatedAt   sql.NullString
}

// Dataset is a full snapshot of the remote API
type Dataset struct {
	Tags     []TagRow
	Users    []UserRow
	Projects []ProjectRow
}

const upsertTagSQL = `INSERT INTO Tags (_id, name, type, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(_id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    createdAt = excluded.createdAt,
    updatedAt = excluded.updatedAt`

const upsertUserSQL = `INSERT INTO Users (_id, firstName, lastName, email, username, status, userType,
    interestedTags, interestedCourses, studyPrograms, isBlockedByAdmin, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(_id) DO UPDATE SET
    firstName = excluded.firstName,
    lastName = excluded.lastName,
    email = excluded.email,
    username = excluded.username,
    status = excluded.status,
    userType = excluded.userType,
    interestedTags = excluded.interestedTags,
    interestedCourses = excluded.interestedCourses,
    studyPrograms = excluded.studyPrograms,
    isBlockedByAdmin = excluded.isBlockedByAdmin,
    createdAt = excluded.createdAt,
    updatedAt = excluded.updatedAt`

const upsertProjectSQL = `INSERT INTO Projects (_id, title, description, tags, owner_id, isDraft,
    links, attachments, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(_id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    tags = excluded.tags,
    owner_id = excluded.owner_id,
    isDraft = excluded.isDraft,
    links = excluded.links,
    attachments = excluded.attachments,
    createdAt = excluded.createdAt,
    updatedAt = excluded.updatedAt`

// ReplaceAll clears Tags, Projects and Users and loads the dataset in a single
// transaction. On any error nothing is changed.
func (dm *DBManager) ReplaceAll(ctx context.Context, data Dataset) (apptype.TableCounts, error) {
	done := metrics.TimeOp("replace_all")
	success := false
	defer func() { done(success) }()

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return apptype.TableCounts{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{tableTags, tableProjects, tableUsers} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return apptype.TableCounts{}, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertTags(ctx, tx, data.Tags); err != nil {
		return apptype.TableCounts{}, err
	}
	if err := insertUsers(ctx, tx, data.Users); err != nil {
		return apptype.TableCounts{}, err
	}
	if err := insertProjects(ctx, tx, data.Projects); err != nil {
		return apptype.TableCounts{}, err
	}

	counts, err := countRows(ctx, tx)
	if err != nil {
		return apptype.TableCounts{}, err
	}
	if err := tx.Commit(); err != nil {
		return apptype.TableCounts{}, fmt.Errorf("failed to commit sync: %w", err)
	}
	success = true
	return counts, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, rows []TagRow) error {
	stmt, err := tx.PrepareContext(ctx, upsertTagSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare tag upsert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if r.ID == "" {
			return fmt.Errorf("tag at index %d has no _id: %w", i, ErrInvalidRecord)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Type, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert tag %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertUsers(ctx context.Context, tx *sql.Tx, rows []UserRow) error {
	stmt, err := tx.PrepareContext(ctx, upsertUserSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare user upsert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if r.ID == "" {
			return fmt.Errorf("user at index %d has no _id: %w", i, ErrInvalidRecord)
		}
		_, err := stmt.ExecContext(ctx, r.ID, r.FirstName, r.LastName, r.Email, r.Username, r.Status,
			r.UserType, r.InterestedTags, r.InterestedCourses, r.StudyPrograms, r.IsBlockedByAdmin,
			r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertProjects(ctx context.Context, tx *sql.Tx, rows []ProjectRow) error {
	stmt, err := tx.PrepareContext(ctx, upsertProjectSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare project upsert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if r.ID == "" {
			return fmt.Errorf("project at index %d has no _id: %w", i, ErrInvalidRecord)
		}
		_, err := stmt.ExecContext(ctx, r.ID, r.Title, r.Description, r.Tags, r.OwnerID, r.IsDraft,
			r.Links, r.Attachments, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", r.ID, err)
		}
	}
	return nil
}
