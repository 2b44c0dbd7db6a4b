// Package chatbot is the library entry point: it answers questions about the
// recommendation data and syncs it without running a server.
package chatbot

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/HHN/idealize-recommendation/internal/agent"
	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/database"
	"github.com/HHN/idealize-recommendation/internal/etl"
	"github.com/HHN/idealize-recommendation/internal/language"
)

// Agent is anything that turns an instruction prompt into a final answer
type Agent interface {
	Run(ctx context.Context, input string) (string, error)
}

// Option customises a Service
type Option func(*options)

type options struct {
	agent  Agent
	log    zerolog.Logger
	client *http.Client
}

// WithAgent replaces the language model agent, e.g. in tests
func WithAgent(a Agent) Option { return func(o *options) { o.agent = a } }

// WithLogger sets the logger; the default discards output
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithHTTPClient sets the client used to reach the platform API
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.client = c } }

// Answer is one answered question
type Answer struct {
	// JSON is the compact encoding of Response.
	JSON      string
	Response  apptype.ChatResponse
	Language  string
	RequestID string
}

// SyncResult reports rows loaded per table
type SyncResult = apptype.SyncResult

// Service provides a library-first API without HTTP or MCP transport.
type Service struct {
	db     *database.DBManager
	chat   *chat.Service
	syncer *etl.Syncer
}

// New constructs a Service with the provided config.
func New(cfg *Config, opts ...Option) (*Service, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return newService(cfg.toInternal(), o)
}

func newService(cfg *config.Config, o options) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	detector, err := language.NewDetector(cfg.Chat.Language)
	if err != nil {
		return nil, err
	}

	dm, err := database.NewDBManager(cfg.Database)
	if err != nil {
		return nil, err
	}

	var a agent.Agent = o.agent
	if a == nil {
		sqlAgent, err := agent.New(cfg.LLM, dm.Engine(), o.log)
		if err != nil {
			dm.Close()
			return nil, err
		}
		a = sqlAgent
	}

	source := etl.NewSource(cfg.Source, o.client)
	return &Service{
		db:     dm,
		chat:   chat.NewService(a, dm, detector, o.log),
		syncer: etl.NewSyncer(source, dm, o.log),
	}, nil
}

// Close releases resources.
func (s *Service) Close() error { return s.db.Close() }

// Ask answers a question and records the exchange.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	a, err := s.chat.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	return &Answer{JSON: a.Formatted, Response: a.Response, Language: string(a.Language), RequestID: a.RequestID}, nil
}

// Sync reloads projects, users and tags from the platform API.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	res, err := s.syncer.Run(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{
		Projects:   res.Projects,
		Users:      res.Users,
		Tags:       res.Tags,
		DurationMs: res.Duration.Milliseconds(),
	}, nil
}

// RecentChats returns the latest exchanges, newest first.
func (s *Service) RecentChats(ctx context.Context, limit int) ([]apptype.ChatLogEntry, error) {
	return s.db.RecentChats(ctx, limit)
}
