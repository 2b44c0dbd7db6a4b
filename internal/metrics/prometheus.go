//go:build !noprom

package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	dbTotal     *prom.CounterVec
	dbSeconds   *prom.HistogramVec
	chatTotal   *prom.CounterVec
	chatSeconds *prom.HistogramVec
	syncTotal   *prom.CounterVec
	syncSeconds *prom.HistogramVec
	syncedRows  *prom.GaugeVec
	poolInUse   prom.Gauge
	poolIdle    prom.Gauge
}

// Agent round trips take seconds to minutes, so chat and sync get wider buckets.
var slowBuckets = []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300}

func (p *promRecorder) IncDBOpTotal(op string, success bool) {
	p.dbTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func (p *promRecorder) ObserveDBOpSeconds(op string, success bool, seconds float64) {
	p.dbSeconds.WithLabelValues(op, strconv.FormatBool(success)).Observe(seconds)
}

func (p *promRecorder) IncChatTotal(language string, success bool) {
	p.chatTotal.WithLabelValues(language, strconv.FormatBool(success)).Inc()
}

func (p *promRecorder) ObserveChatSeconds(language string, success bool, seconds float64) {
	p.chatSeconds.WithLabelValues(language, strconv.FormatBool(success)).Observe(seconds)
}

func (p *promRecorder) IncSyncTotal(success bool) {
	p.syncTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (p *promRecorder) ObserveSyncSeconds(success bool, seconds float64) {
	p.syncSeconds.WithLabelValues(strconv.FormatBool(success)).Observe(seconds)
}

func (p *promRecorder) SetSyncedRows(table string, rows int) {
	p.syncedRows.WithLabelValues(table).Set(float64(rows))
}

func (p *promRecorder) ObservePoolStats(inUse, idle int) {
	p.poolInUse.Set(float64(inUse))
	p.poolIdle.Set(float64(idle))
}

func newPromRecorder(registry *prom.Registry) *promRecorder {
	p := &promRecorder{
		dbTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "db_ops_total",
			Help: "Total number of DB operations",
		}, []string{"op", "success"}),
		dbSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "db_op_seconds",
			Help:    "DB operation duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
		chatTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat requests",
		}, []string{"language", "success"}),
		chatSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "chat_request_seconds",
			Help:    "Chat request duration in seconds, agent round trip included",
			Buckets: slowBuckets,
		}, []string{"language", "success"}),
		syncTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of ETL sync runs",
		}, []string{"success"}),
		syncSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "sync_run_seconds",
			Help:    "ETL sync duration in seconds",
			Buckets: slowBuckets,
		}, []string{"success"}),
		syncedRows: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "synced_rows",
			Help: "Rows loaded per table by the last successful sync",
		}, []string{"table"}),
		poolInUse: prom.NewGauge(prom.GaugeOpts{
			Name: "db_pool_in_use",
			Help: "DB connections in use",
		}),
		poolIdle: prom.NewGauge(prom.GaugeOpts{
			Name: "db_pool_idle",
			Help: "Idle DB connections",
		}),
	}
	registry.MustRegister(p.dbTotal, p.dbSeconds, p.chatTotal, p.chatSeconds,
		p.syncTotal, p.syncSeconds, p.syncedRows, p.poolInUse, p.poolIdle)
	return p
}

// enablePrometheus binds addr before swapping the recorder, so a busy port
// is reported to the caller and the no-op recorder stays in place.
func enablePrometheus(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}
	registry := prom.NewRegistry()
	SetRecorder(newPromRecorder(registry))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		if err := http.Serve(ln, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			SetRecorder(nil)
		}
	}()
	return nil
}
