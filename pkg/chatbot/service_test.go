package chatbot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct{ output string }

func (s stubAgent) Run(context.Context, string) (string, error) { return s.output, nil }

func TestServiceAskSyncAndHistory(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects":
			_, _ = w.Write([]byte(`{"projects":[{"_id":"p1","title":"Campus Bot","owner":{"_id":"u1"}}]}`))
		case "/api/users":
			_, _ = w.Write([]byte(`[{"_id":"u1","firstName":"Anna","lastName":"Schmidt"}]`))
		case "/api/tags":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	svc, err := New(&Config{
		DatabaseURL:   "file:chatbot-facade?mode=memory&cache=shared",
		SourceBaseURL: api.URL + "/api/",
		Language:      "en",
	}, WithAgent(stubAgent{output: `{"message":"One project","projects":[{"_id":"p1","title":"Campus Bot","createdAt":""}]}`}),
		WithHTTPClient(api.Client()))
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Projects)
	assert.Equal(t, 1, res.Users)
	assert.Equal(t, 0, res.Tags)

	answer, err := svc.Ask(ctx, "Which projects exist?")
	require.NoError(t, err)
	assert.Equal(t, "en", answer.Language)
	assert.Equal(t, `{"message":"One project","projects":[{"_id":"p1","title":"Campus Bot","createdAt":""}],"users":[]}`, answer.JSON)

	history, err := svc.RecentChats(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Which projects exist?", history[0].Prompt)
	assert.Equal(t, answer.JSON, history[0].Response)
	assert.Equal(t, answer.RequestID, history[0].RequestID)
}

func TestNewRequiresAPIKeyWithoutAgent(t *testing.T) {
	_, err := New(&Config{DatabaseURL: "file:chatbot-nokey?mode=memory&cache=shared"})
	assert.Error(t, err)
}

func TestNewRejectsBadLanguage(t *testing.T) {
	_, err := New(&Config{DatabaseURL: "file:chatbot-lang?mode=memory&cache=shared", Language: "fr"}, WithAgent(stubAgent{}))
	assert.Error(t, err)
}
