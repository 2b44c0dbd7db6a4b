package etl

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/HHN/idealize-recommendation/internal/database"
)

// The API emits JavaScript ISO timestamps. Go accepts an optional fraction
// after the seconds even when the layout has none.
const (
	isoLayout = "2006-01-02T15:04:05Z"
	sqlLayout = "2006-01-02 15:04:05"
)

// ConvertISOToSQLDatetime turns "2024-10-21T10:30:00.000Z" into
// "2024-10-21 10:30:00". Missing or unparseable values become NULL.
func ConvertISOToSQLDatetime(iso *string) sql.NullString {
	if iso == nil {
		return sql.NullString{}
	}
	t, err := time.Parse(isoLayout, *iso)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(sqlLayout), Valid: true}
}

// ownerID extracts the id of a populated owner object. Bare ids and other
// shapes yield NULL.
func ownerID(raw json.RawMessage) sql.NullString {
	var owner struct {
		ID *string `json:"_id"`
	}
	if len(raw) == 0 || raw[0] != '{' {
		return sql.NullString{}
	}
	if err := json.Unmarshal(raw, &owner); err != nil || owner.ID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *owner.ID, Valid: true}
}

// jsonList returns the compact JSON text of a list field, "[]" when absent
func jsonList(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "[]"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "[]"
	}
	return buf.String()
}

// Transform maps API records to database rows
func Transform(snap *Snapshot) database.Dataset {
	data := database.Dataset{
		Tags:     make([]database.TagRow, 0, len(snap.Tags)),
		Users:    make([]database.UserRow, 0, len(snap.Users)),
		Projects: make([]database.ProjectRow, 0, len(snap.Projects)),
	}
	for _, t := range snap.Tags {
		data.Tags = append(data.Tags, database.TagRow{
			ID:        t.ID,
			Name:      t.Name,
			Type:      t.Type,
			CreatedAt: ConvertISOToSQLDatetime(t.CreatedAt),
			UpdatedAt: ConvertISOToSQLDatetime(t.UpdatedAt),
		})
	}
	for _, u := range snap.Users {
		data.Users = append(data.Users, database.UserRow{
			ID:                u.ID,
			FirstName:         u.FirstName,
			LastName:          u.LastName,
			Email:             u.Email,
			Username:          u.Username,
			Status:            u.Status,
			UserType:          u.UserType,
			InterestedTags:    jsonList(u.InterestedTags),
			InterestedCourses: jsonList(u.InterestedCourses),
			StudyPrograms:     jsonList(u.StudyPrograms),
			IsBlockedByAdmin:  u.IsBlockedByAdmin,
			CreatedAt:         ConvertISOToSQLDatetime(u.CreatedAt),
			UpdatedAt:         ConvertISOToSQLDatetime(u.UpdatedAt),
		})
	}
	for _, p := range snap.Projects {
		data.Projects = append(data.Projects, database.ProjectRow{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Tags:        jsonList(p.Tags),
			OwnerID:     ownerID(p.Owner),
			IsDraft:     p.IsDraft,
			Links:       jsonList(p.Links),
			Attachments: jsonList(p.Attachments),
			CreatedAt:   ConvertISOToSQLDatetime(p.CreatedAt),
			UpdatedAt:   ConvertISOToSQLDatetime(p.UpdatedAt),
		})
	}
	return data
}
