package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

// ErrInvalidRecord is returned when a synced record cannot be stored
var ErrInvalidRecord = errors.New("invalid record")

// DBManager handles all database operations
type DBManager struct {
	config config.DatabaseConfig
	db     *sql.DB
}

// NewDBManager opens the configured database and creates the schema if needed
func NewDBManager(cfg config.DatabaseConfig) (*DBManager, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	manager := &DBManager{config: cfg, db: db}
	if err := manager.initialize(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return manager, nil
}

// initialize creates tables and indexes if they don't exist
func (dm *DBManager) initialize(ctx context.Context) error {
	done := metrics.TimeOp("db_initialize")
	success := false
	defer func() { done(success) }()

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range schema {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	success = true
	return nil
}

// DB exposes the underlying handle
func (dm *DBManager) DB() *sql.DB { return dm.db }

// Config returns the configuration the manager was opened with
func (dm *DBManager) Config() config.DatabaseConfig { return dm.config }

// Ping checks that the database is reachable
func (dm *DBManager) Ping(ctx context.Context) error {
	done := metrics.TimeOp("ping")
	err := dm.db.PingContext(ctx)
	done(err == nil)
	return err
}

// PoolStats returns current connection pool usage
func (dm *DBManager) PoolStats() (inUse, idle int) {
	stats := dm.db.Stats()
	return stats.InUse, stats.Idle
}

// Counts returns the number of rows in each synced table
func (dm *DBManager) Counts(ctx context.Context) (apptype.TableCounts, error) {
	done := metrics.TimeOp("counts")
	success := false
	defer func() { done(success) }()

	counts, err := countRows(ctx, dm.db)
	if err != nil {
		return apptype.TableCounts{}, err
	}
	success = true
	return counts, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countRows(ctx context.Context, q queryRower) (apptype.TableCounts, error) {
	var counts apptype.TableCounts
	targets := []struct {
		table string
		dst   *int
	}{
		{tableProjects, &counts.Projects},
		{tableUsers, &counts.Users},
		{tableTags, &counts.Tags},
	}
	for _, t := range targets {
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return apptype.TableCounts{}, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return counts, nil
}

// Close closes the database connection
func (dm *DBManager) Close() error {
	if err := dm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
