package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/HHN/idealize-recommendation/internal/apptype"
	"github.com/HHN/idealize-recommendation/internal/buildinfo"
	"github.com/HHN/idealize-recommendation/internal/logging"
	"github.com/HHN/idealize-recommendation/internal/metrics"
)

// MCPServer exposes the chatbot as MCP tools
type MCPServer struct {
	server       *mcp.Server
	svc          Services
	log          zerolog.Logger
	poolInterval time.Duration
}

// NewMCPServer creates a new MCP server
func NewMCPServer(svc Services, log zerolog.Logger) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    buildinfo.Name,
		Version: buildinfo.Version,
	}, nil)

	s := &MCPServer{server: server, svc: svc, log: logging.Component(log, "mcp"), poolInterval: poolSampleInterval}
	s.setupToolHandlers()
	return s
}

func mustSchema[T any](name string) *jsonschema.Schema {
	schema, err := jsonschema.For[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for %s: %v", name, err))
	}
	return schema
}

// setupToolHandlers registers all MCP tools
func (s *MCPServer) setupToolHandlers() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "ask_database",
		Title:        "Ask Database",
		Description:  "Answer a question about projects, people and tags. Returns the answer text plus matching projects and users.",
		InputSchema:  mustSchema[apptype.AskArgs]("AskArgs"),
		OutputSchema: mustSchema[apptype.ChatResponse]("ChatResponse"),
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "sync_data",
		Title:        "Sync Data",
		Description:  "Reload projects, users and tags from the platform API, replacing the local copy.",
		InputSchema:  mustSchema[apptype.SyncArgs]("SyncArgs"),
		OutputSchema: mustSchema[apptype.SyncResult]("SyncResult"),
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "recent_chats",
		Title:        "Recent Chats",
		Description:  "List the most recent questions and answers, newest first.",
		InputSchema:  mustSchema[apptype.RecentChatsArgs]("RecentChatsArgs"),
		OutputSchema: mustSchema[apptype.ChatLogResult]("ChatLogResult"),
	}, s.handleRecentChats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "health_check",
		Title:        "Health Check",
		Description:  "Returns server build information and database state.",
		InputSchema:  mustSchema[apptype.HealthArgs]("HealthArgs"),
		OutputSchema: mustSchema[apptype.HealthResult]("HealthResult"),
	}, s.handleHealth)
}

func (s *MCPServer) handleAsk(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.AskArgs],
) (*mcp.CallToolResultFor[apptype.ChatResponse], error) {
	answer, err := s.svc.Chat.Ask(ctx, params.Arguments.Message)
	if err != nil {
		return nil, fmt.Errorf("ask_database failed: %w", err)
	}
	return &mcp.CallToolResultFor[apptype.ChatResponse]{
		Content:           []mcp.Content{&mcp.TextContent{Text: answer.Formatted}},
		StructuredContent: answer.Response,
	}, nil
}

func (s *MCPServer) handleSync(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.SyncArgs],
) (*mcp.CallToolResultFor[apptype.SyncResult], error) {
	res, err := s.svc.Sync.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync_data failed: %w", err)
	}
	out := syncResult(res)
	return &mcp.CallToolResultFor[apptype.SyncResult]{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(
			"Synced %d projects, %d users and %d tags", out.Projects, out.Users, out.Tags)}},
		StructuredContent: out,
	}, nil
}

func (s *MCPServer) handleRecentChats(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.RecentChatsArgs],
) (*mcp.CallToolResultFor[apptype.ChatLogResult], error) {
	entries, err := s.svc.Store.RecentChats(ctx, params.Arguments.Limit)
	if err != nil {
		return nil, fmt.Errorf("recent_chats failed: %w", err)
	}
	return &mcp.CallToolResultFor[apptype.ChatLogResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%d exchanges", len(entries))}},
		StructuredContent: apptype.ChatLogResult{Entries: entries},
	}, nil
}

func (s *MCPServer) handleHealth(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.HealthArgs],
) (*mcp.CallToolResultFor[apptype.HealthResult], error) {
	res, _ := health(ctx, s.svc.Store)
	return &mcp.CallToolResultFor[apptype.HealthResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: "Database: " + res.Database}},
		StructuredContent: res,
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *MCPServer) Run(ctx context.Context) error {
	metrics.SamplePool(ctx, s.poolInterval, s.svc.Store.PoolStats)
	return s.server.Run(ctx, mcp.NewStdioTransport())
}

// RunSSE starts the MCP server over SSE at the given address and endpoint
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	metrics.SamplePool(ctx, s.poolInterval, s.svc.Store.PoolStats)
	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Str("endpoint", endpoint).Msg("SSE MCP server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
