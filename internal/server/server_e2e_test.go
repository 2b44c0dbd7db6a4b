package server

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/database"
	"github.com/HHN/idealize-recommendation/internal/etl"
)

// pickFreePort tries to get a free TCP port on 127.0.0.1
func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func TestMCPHandlers(t *testing.T) {
	store := &fakeStore{entries: []apptype.ChatLogEntry{{ID: 1, Prompt: "a"}}}
	srv := NewMCPServer(Services{
		Chat:  &fakeAsker{answer: sampleAnswer()},
		Sync:  &fakeSync{res: etl.Result{Projects: 1, Users: 2, Tags: 3}},
		Store: store,
	}, zerolog.Nop())
	ctx := context.Background()

	ask, err := srv.handleAsk(ctx, nil, &mcp.CallToolParamsFor[apptype.AskArgs]{Arguments: apptype.AskArgs{Message: "Welche Projekte?"}})
	require.NoError(t, err)
	assert.Equal(t, "p1", ask.StructuredContent.Projects[0].ID)
	require.Len(t, ask.Content, 1)
	assert.Equal(t, sampleAnswer().Formatted, ask.Content[0].(*mcp.TextContent).Text)

	_, err = srv.handleAsk(ctx, nil, &mcp.CallToolParamsFor[apptype.AskArgs]{})
	assert.ErrorIs(t, err, chat.ErrEmptyPrompt)

	sync, err := srv.handleSync(ctx, nil, &mcp.CallToolParamsFor[apptype.SyncArgs]{})
	require.NoError(t, err)
	assert.Equal(t, apptype.SyncResult{Projects: 1, Users: 2, Tags: 3}, sync.StructuredContent)

	chats, err := srv.handleRecentChats(ctx, nil, &mcp.CallToolParamsFor[apptype.RecentChatsArgs]{Arguments: apptype.RecentChatsArgs{Limit: 7}})
	require.NoError(t, err)
	assert.Len(t, chats.StructuredContent.Entries, 1)
	assert.Equal(t, 7, store.limit)

	health, err := srv.handleHealth(ctx, nil, &mcp.CallToolParamsFor[apptype.HealthArgs]{})
	require.NoError(t, err)
	assert.Equal(t, "ok", health.StructuredContent.Database)
}

func TestSSEServer_ListTools(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.URL = "file:test-e2e?mode=memory&cache=shared"
	dbm, err := database.NewDBManager(cfg)
	require.NoError(t, err)
	defer dbm.Close()

	srv := NewMCPServer(Services{Chat: &fakeAsker{answer: sampleAnswer()}, Sync: &fakeSync{}, Store: dbm}, zerolog.Nop())

	port, err := pickFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	endpoint := "/sse"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.RunSSE(ctx, addr, endpoint) }()

	// wait briefly for server to bind
	time.Sleep(150 * time.Millisecond)

	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "test"}, nil)
	transport := mcp.NewSSEClientTransport("http://"+addr+endpoint, nil)

	// retry connect a few times to avoid flakes
	var session *mcp.ClientSession
	for i := 0; i < 5; i++ {
		session, err = client.Connect(ctx, transport)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask_database", "sync_data", "recent_chats", "health_check"}, names)
}
