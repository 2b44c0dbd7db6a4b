package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tmc/langchaingo/tools/sqldatabase"

	"github.com/HHN/idealize-recommendation/internal/metrics"
)

var _ sqldatabase.Engine = (*Engine)(nil)

// Engine exposes the managed database to the SQL agent tools
type Engine struct {
	db *sql.DB
}

// Engine returns an agent-facing view of the database. Closing it does not
// close the manager.
func (dm *DBManager) Engine() *Engine {
	return &Engine{db: dm.db}
}

// Dialect reports the SQL dialect used in prompts
func (e *Engine) Dialect() string { return "sqlite" }

// Query runs an arbitrary statement and returns every value as text
func (e *Engine) Query(ctx context.Context, query string, args ...any) ([]string, [][]string, error) {
	done := metrics.TimeOp("agent_query")
	success := false
	defer func() { done(success) }()

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	results := make([][]string, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = textValue(v)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	success = true
	return cols, results, nil
}

// textValue renders a driver value as text. The libSQL driver returns any
// date-like TEXT cell as time.Time; those are printed in the layout the ETL
// stores, so timestamps read back unchanged.
func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(sqliteTimestamp)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// TableNames lists user tables, skipping SQLite and libSQL internals
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT name FROM sqlite_master
        WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'libsql_%'
        ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableInfo returns the CREATE statement of a table
func (e *Engine) TableInfo(ctx context.Context, table string) (string, error) {
	var ddl string
	err := e.db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("table %q not found", table)
	}
	if err != nil {
		return "", fmt.Errorf("failed to describe %s: %w", table, err)
	}
	return ddl, nil
}

// Close is a no-op; the DBManager owns the connection
func (e *Engine) Close() error { return nil }
