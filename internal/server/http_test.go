package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/etl"
	"github.com/HHN/idealize-recommendation/internal/language"
)

type fakeAsker struct {
	answer   *chat.Answer
	err      error
	question string
}

func (f *fakeAsker) Ask(_ context.Context, question string) (*chat.Answer, error) {
	f.question = question
	if strings.TrimSpace(question) == "" {
		return nil, chat.ErrEmptyPrompt
	}
	return f.answer, f.err
}

type fakeSync struct {
	res etl.Result
	err error
}

func (f *fakeSync) Run(context.Context) (etl.Result, error) { return f.res, f.err }

type fakeStore struct {
	entries []apptype.ChatLogEntry
	counts  apptype.TableCounts
	pingErr error
	limit   int
	polls   atomic.Int32
}

func (f *fakeStore) RecentChats(_ context.Context, limit int) ([]apptype.ChatLogEntry, error) {
	f.limit = limit
	return f.entries, nil
}

func (f *fakeStore) Counts(context.Context) (apptype.TableCounts, error) { return f.counts, nil }
func (f *fakeStore) Ping(context.Context) error                          { return f.pingErr }
func (f *fakeStore) PoolStats() (int, int) {
	f.polls.Add(1)
	return 0, 1
}

func sampleAnswer() *chat.Answer {
	return &chat.Answer{
		Response: apptype.ChatResponse{
			Message:  "Ein Projekt",
			Projects: []apptype.ProjectRef{{ID: "p1", Title: "Campus Bot", CreatedAt: "2024-10-21 10:30:00"}},
			Users:    []apptype.UserRef{},
		},
		Formatted: `{"message":"Ein Projekt","projects":[{"_id":"p1","title":"Campus Bot","createdAt":"2024-10-21 10:30:00"}],"users":[]}`,
		Language:  language.German,
		RequestID: "req-1",
	}
}

func newTestHTTP(svc Services) http.Handler {
	return NewHTTPServer(config.DefaultConfig().Server, svc, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatbotEndpoint(t *testing.T) {
	asker := &fakeAsker{answer: sampleAnswer()}
	h := newTestHTTP(Services{Chat: asker, Sync: &fakeSync{}, Store: &fakeStore{}})

	rec := do(t, h, http.MethodPost, "/api/chatbot", `{"message":"Welche Projekte gibt es?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Welche Projekte gibt es?", asker.question)

	var reply apptype.ChatReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, sampleAnswer().Formatted, reply.Response)
}

func TestChatbotEndpointErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad json", `{"message":`, nil, http.StatusBadRequest},
		{"missing message", `{}`, nil, http.StatusBadRequest},
		{"agent failure", `{"message":"q"}`, fmt.Errorf("%w: timeout", chat.ErrAgent), http.StatusBadGateway},
		{"malformed output", `{"message":"q"}`, chat.ErrMalformedOutput, http.StatusBadGateway},
		{"other", `{"message":"q"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newTestHTTP(Services{Chat: &fakeAsker{err: c.err}, Sync: &fakeSync{}, Store: &fakeStore{}})
			rec := do(t, h, http.MethodPost, "/api/chatbot", c.body)
			assert.Equal(t, c.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSyncEndpoint(t *testing.T) {
	h := newTestHTTP(Services{
		Chat:  &fakeAsker{},
		Sync:  &fakeSync{res: etl.Result{Projects: 3, Users: 2, Tags: 1, Duration: 1500 * time.Millisecond}},
		Store: &fakeStore{},
	})
	rec := do(t, h, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res apptype.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, apptype.SyncResult{Projects: 3, Users: 2, Tags: 1, DurationMs: 1500}, res)

	failing := newTestHTTP(Services{
		Chat:  &fakeAsker{},
		Sync:  &fakeSync{err: &etl.StatusError{Collection: "tags", StatusCode: http.StatusUnauthorized}},
		Store: &fakeStore{},
	})
	rec = do(t, failing, http.MethodPost, "/api/sync", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to fetch data from the API")
}

func TestChatLogEndpoint(t *testing.T) {
	store := &fakeStore{entries: []apptype.ChatLogEntry{{ID: 2, Prompt: "b"}, {ID: 1, Prompt: "a"}}}
	h := newTestHTTP(Services{Chat: &fakeAsker{}, Sync: &fakeSync{}, Store: store})

	rec := do(t, h, http.MethodGet, "/api/chatlog?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.limit)

	var res apptype.ChatLogResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "b", res.Entries[0].Prompt)

	rec = do(t, h, http.MethodGet, "/api/chatlog?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	store := &fakeStore{counts: apptype.TableCounts{Projects: 4}}
	h := newTestHTTP(Services{Chat: &fakeAsker{}, Sync: &fakeSync{}, Store: store})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res apptype.HealthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ok", res.Database)
	assert.Equal(t, 4, res.Rows.Projects)

	store.pingErr = errors.New("database is closed")
	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHTTP(Services{Chat: &fakeAsker{}, Sync: &fakeSync{}, Store: &fakeStore{}})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/chatbot", "").Code)
}

func TestHTTPServerRunSamplesPoolAndStops(t *testing.T) {
	store := &fakeStore{}
	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	srv := NewHTTPServer(cfg, Services{Chat: &fakeAsker{}, Sync: &fakeSync{}, Store: store}, zerolog.Nop())
	srv.poolInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.polls.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
