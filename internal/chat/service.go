// Package chat answers questions about the recommendation data.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HHN/idealize-recommendation/internal/agent"
	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/language"
	"github.com/HHN/idealize-recommendation/internal/logging"
	"github.com/HHN/idealize-recommendation/internal/metrics"
	"github.com/HHN/idealize-recommendation/internal/prompt"
)

var (
	// ErrEmptyPrompt is returned for blank questions
	ErrEmptyPrompt = errors.New("message must not be empty")
	// ErrMalformedOutput is returned when the agent did not answer with a JSON object
	ErrMalformedOutput = errors.New("agent output is not valid JSON")
	// ErrAgent wraps failures of the agent run itself
	ErrAgent = errors.New("agent failed")
)

// Store persists exchanges
type Store interface {
	SaveChat(ctx context.Context, entry apptype.ChatLogEntry) (int64, error)
}

// Answer is the outcome of one question
type Answer struct {
	Response  apptype.ChatResponse
	Formatted string
	Language  language.Language
	RequestID string
}

// Service runs the question, agent, format and persist flow
type Service struct {
	agent    agent.Agent
	store    Store
	detector *language.Detector
	log      zerolog.Logger
}

// NewService wires a chat service. A nil detector detects automatically.
func NewService(a agent.Agent, store Store, detector *language.Detector, log zerolog.Logger) *Service {
	return &Service{agent: a, store: store, detector: detector, log: logging.Component(log, "chat")}
}

type requestIDKey struct{}

// WithRequestID attaches a caller supplied request id to ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Ask answers one question. Saving the exchange is best effort; a failed
// save is logged and the answer is still returned.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyPrompt
	}

	lang := s.detector.Detect(question)
	reqID := requestID(ctx)
	log := s.log.With().Str("request_id", reqID).Str("language", string(lang)).Logger()

	done := metrics.TimeChat(string(lang))
	success := false
	defer func() { done(success) }()

	output, err := s.agent.Run(ctx, prompt.Build(lang, question))
	if err != nil {
		log.Error().Err(err).Msg("agent run failed")
		return nil, fmt.Errorf("%w: %v", ErrAgent, err)
	}

	resp, err := ParseOutput(output)
	if err != nil {
		log.Error().Err(err).Str("output", output).Msg("failed to parse agent output")
		return nil, err
	}
	formatted, err := Format(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}

	if s.store != nil {
		entry := apptype.ChatLogEntry{
			RequestID: reqID,
			Prompt:    question,
			Response:  formatted,
			Language:  string(lang),
		}
		if _, err := s.store.SaveChat(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("error saving chat to the database")
		}
	}

	log.Info().
		Int("projects", len(resp.Projects)).
		Int("users", len(resp.Users)).
		Msg("answered")
	success = true
	return &Answer{Response: resp, Formatted: formatted, Language: lang, RequestID: reqID}, nil
}
