package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/buildinfo"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/etl"
	"github.com/HHN/idealize-recommendation/internal/logging"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

const maxRequestBodySize = 1 << 20

// HTTPServer serves the chatbot REST API
type HTTPServer struct {
	cfg          config.ServerConfig
	svc          Services
	log          zerolog.Logger
	router       chi.Router
	poolInterval time.Duration
}

// NewHTTPServer builds the router
func NewHTTPServer(cfg config.ServerConfig, svc Services, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{cfg: cfg, svc: svc, log: logging.Component(log, "http"), poolInterval: poolSampleInterval}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chatbot", s.handleChat)
		r.Post("/sync", s.handleSync)
		r.Get("/chatlog", s.handleChatLog)
	})
	s.router = r
	return s
}

// Handler returns the root handler
func (s *HTTPServer) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is cancelled
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	metrics.SamplePool(ctx, s.poolInterval, s.svc.Store.PoolStats)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info().Msg("shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req apptype.ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := chat.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	answer, err := s.svc.Chat.Ask(ctx, req.Message)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apptype.ChatReply{Response: answer.Formatted})
}

func (s *HTTPServer) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Sync.Run(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResult(res))
}

func (s *HTTPServer) handleChatLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.svc.Store.RecentChats(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apptype.ChatLogResult{Entries: entries})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	res, ok := health(r.Context(), s.svc.Store)
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// health reports build info and database state; ok is false when the
// database cannot be reached.
func health(ctx context.Context, store Store) (apptype.HealthResult, bool) {
	res := apptype.HealthResult{
		Name:      buildinfo.Name,
		Version:   buildinfo.Version,
		Revision:  buildinfo.Revision,
		BuildDate: buildinfo.BuildDate,
		Database:  "ok",
	}
	if err := store.Ping(ctx); err != nil {
		res.Database = err.Error()
		return res, false
	}
	if counts, err := store.Counts(ctx); err == nil {
		res.Rows = counts
	}
	return res, true
}

func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrAgent), errors.Is(err, chat.ErrMalformedOutput):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, etl.ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
