// Package etl pulls the project, user and tag collections from the platform
// API and loads them into the local database.
package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/config"
)

// ErrSourceUnavailable means the remote API did not deliver a collection
var ErrSourceUnavailable = errors.New("failed to fetch data from the API")

// StatusError reports a non-200 answer for one collection
type StatusError struct {
	Collection string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrSourceUnavailable, e.Collection, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrSourceUnavailable }

// Snapshot is the raw content of the three collections
type Snapshot struct {
	Projects []apptype.Project
	Users    []apptype.User
	Tags     []apptype.Tag
}

// Source fetches collections from the remote API
type Source struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewSource builds a client for the configured API. The base URL gets a
// trailing slash so collection names can be appended.
func NewSource(cfg config.SourceConfig, client *http.Client) *Source {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Source{baseURL: base, token: cfg.Token, http: client}
}

// Fetch downloads all three collections concurrently. Any failure cancels the
// others and returns without a partial snapshot.
func (s *Source) Fetch(ctx context.Context) (*Snapshot, error) {
	var (
		snap     Snapshot
		projects struct {
			Projects []apptype.Project `json:"projects"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.get(gctx, "projects", &projects) })
	g.Go(func() error { return s.get(gctx, "users", &snap.Users) })
	g.Go(func() error { return s.get(gctx, "tags", &snap.Tags) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.Projects = projects.Projects
	return &snap, nil
}

func (s *Source) get(ctx context.Context, collection string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+collection, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, collection, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Collection: collection, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}
