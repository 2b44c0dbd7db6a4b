package metrics

import (
	"context"
	"sync"
	"time"
)

// Package metrics provides a minimal instrumentation interface with a no-op
// default and optional Prometheus-backed implementation enabled via config.

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncDBOpTotal(op string, success bool)
	ObserveDBOpSeconds(op string, success bool, seconds float64)
	IncChatTotal(language string, success bool)
	ObserveChatSeconds(language string, success bool, seconds float64)
	IncSyncTotal(success bool)
	ObserveSyncSeconds(success bool, seconds float64)
	SetSyncedRows(table string, rows int)
	ObservePoolStats(inUse, idle int)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncDBOpTotal(string, bool)                {}
func (n *noopRecorder) ObserveDBOpSeconds(string, bool, float64) {}
func (n *noopRecorder) IncChatTotal(string, bool)                {}
func (n *noopRecorder) ObserveChatSeconds(string, bool, float64) {}
func (n *noopRecorder) IncSyncTotal(bool)                        {}
func (n *noopRecorder) ObserveSyncSeconds(bool, float64)         {}
func (n *noopRecorder) SetSyncedRows(string, int)                {}
func (n *noopRecorder) ObservePoolStats(int, int)                {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
// A nil recorder restores the no-op default.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = &noopRecorder{}
	}
	recorder = r
}

// TimeOp is a helper to time DB operations.
func TimeOp(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncDBOpTotal(op, success)
		Default().ObserveDBOpSeconds(op, success, dur)
	}
}

// TimeChat times one chat request for the given language.
func TimeChat(language string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncChatTotal(language, success)
		Default().ObserveChatSeconds(language, success, dur)
	}
}

// TimeSync times one ETL run.
func TimeSync() func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncSyncTotal(success)
		Default().ObserveSyncSeconds(success, dur)
	}
}

// Init enables the Prometheus exporter when enabled is set. It also starts
// a small HTTP server on addr (default :9090) with endpoints: /metrics
// (prom) and /healthz (200 ok).
func Init(enabled bool, addr string) error {
	if !enabled {
		return nil
	}
	if addr == "" {
		addr = ":9090"
	}
	return enablePrometheus(addr)
}

// SamplePool publishes connection pool usage every interval until ctx is
// done. It returns immediately.
func SamplePool(ctx context.Context, interval time.Duration, stats func() (inUse, idle int)) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				inUse, idle := stats()
				Default().ObservePoolStats(inUse, idle)
			}
		}
	}()
}

// enablePrometheus is provided by build-tagged files.
