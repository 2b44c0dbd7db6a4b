package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/HHN/idealize-recommendation/internal/config"
)

// openDB creates the libSQL connector for the configured URL and applies
// pool tuning. Local databases use file: URLs; anything else is treated as
// a remote libSQL server and gets the auth token appended.
func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := buildDSN(cfg.URL, cfg.AuthToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleSec > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleSec) * time.Second)
	}
	if cfg.ConnMaxLifeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeSec) * time.Second)
	}
	return db, nil
}

func buildDSN(dbURL, authToken string) (string, error) {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return "", fmt.Errorf("database url cannot be empty")
	}
	if strings.HasPrefix(dbURL, "file:") || authToken == "" {
		return dbURL, nil
	}

	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	q := u.Query()
	q.Set("authToken", authToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
