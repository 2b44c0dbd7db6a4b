// Package server exposes the chatbot over HTTP and MCP.
package server

import (
	"context"
	"time"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/etl"
)

// Asker answers questions
type Asker interface {
	Ask(ctx context.Context, question string) (*chat.Answer, error)
}

// SyncRunner runs the ETL sync
type SyncRunner interface {
	Run(ctx context.Context) (etl.Result, error)
}

// Store is the read side of the database both surfaces expose
type Store interface {
	RecentChats(ctx context.Context, limit int) ([]apptype.ChatLogEntry, error)
	Counts(ctx context.Context) (apptype.TableCounts, error)
	Ping(ctx context.Context) error
	PoolStats() (inUse, idle int)
}

// poolSampleInterval is how often both servers publish pool gauges
const poolSampleInterval = 5 * time.Second

// Services bundles the dependencies shared by the HTTP and MCP servers
type Services struct {
	Chat  Asker
	Sync  SyncRunner
	Store Store
}

func syncResult(res etl.Result) apptype.SyncResult {
	return apptype.SyncResult{
		Projects:   res.Projects,
		Users:      res.Users,
		Tags:       res.Tags,
		DurationMs: res.Duration.Milliseconds(),
	}
}
