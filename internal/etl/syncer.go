package etl

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/database"
	"github.com/HHN/idealize-recommendation/internal/logging"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

// Fetcher yields a snapshot of the remote collections
type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Store replaces the synced tables
type Store interface {
	ReplaceAll(ctx context.Context, data database.Dataset) (apptype.TableCounts, error)
}

// Result summarises a completed sync
type Result struct {
	Projects int
	Users    int
	Tags     int
	Duration time.Duration
}

// Syncer runs the fetch, transform and load steps
type Syncer struct {
	source Fetcher
	store  Store
	log    zerolog.Logger
}

// NewSyncer wires a syncer
func NewSyncer(source Fetcher, store Store, log zerolog.Logger) *Syncer {
	return &Syncer{source: source, store: store, log: logging.Component(log, "etl")}
}

// Run performs one full replace-and-reload. The database is left untouched
// when fetching fails.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	done := metrics.TimeSync()
	success := false
	defer func() { done(success) }()

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sync fetch failed")
		return Result{}, err
	}

	counts, err := s.store.ReplaceAll(ctx, Transform(snap))
	if err != nil {
		s.log.Error().Err(err).Msg("sync load failed")
		return Result{}, err
	}

	rec := metrics.Default()
	rec.SetSyncedRows("projects", counts.Projects)
	rec.SetSyncedRows("users", counts.Users)
	rec.SetSyncedRows("tags", counts.Tags)

	res := Result{
		Projects: counts.Projects,
		Users:    counts.Users,
		Tags:     counts.Tags,
		Duration: time.Since(start),
	}
	s.log.Info().
		Int("projects", res.Projects).
		Int("users", res.Users).
		Int("tags", res.Tags).
		Dur("duration", res.Duration).
		Msg("sync complete")
	success = true
	return res, nil
}
