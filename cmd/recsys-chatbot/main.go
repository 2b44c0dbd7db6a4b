// Command recsys-chatbot answers natural-language questions about the
// recommendation platform's projects and people.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HHN/idealize-recommendation/internal/agent"
	"github.com/HHN/idealize-recommendation/internal/chat"
	"github.com/HHN/idealize-recommendation/internal/config"
	"github.com/HHN/idealize-recommendation/internal/database"
	"github.com/HHN/idealize-recommendation/internal/etl"
	"github.com/HHN/idealize-recommendation/internal/language"
	"github.com/HHN/idealize-recommendation/internal/logging"
	"github.com/HHN/idealize-recommendation/internal/metrics"
	"github.com/HHN/idealize-recommendation/internal/server"
)

var (
	configPath string
	logLevel   string
	libsqlURL  string
	authToken  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recsys-chatbot",
		Short:         "Natural-language questions over the recommendation database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./recsys.yaml or ~/.recsys/recsys.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&libsqlURL, "libsql-url", "", "libSQL database URL (overrides database.url)")
	root.PersistentFlags().StringVar(&authToken, "auth-token", "", "authentication token for remote databases")

	root.AddCommand(newServeCmd(), newMCPCmd(), newSyncCmd(), newAskCmd(), newVersionCmd())
	return root
}

// app holds the services a command runs against
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *database.DBManager
	chat   *chat.Service
	syncer *etl.Syncer
}

// newApp loads configuration and opens the database. The agent is only
// built when withAgent is set so sync-only runs need no LLM credentials.
func newApp(withAgent bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if libsqlURL != "" {
		cfg.Database.URL = libsqlURL
	}
	if authToken != "" {
		cfg.Database.AuthToken = authToken
	}

	log := logging.New(cfg.Log, os.Stderr)
	if err := metrics.Init(cfg.Metrics.Prometheus, cfg.Metrics.Addr); err != nil {
		log.Warn().Err(err).Msg("metrics disabled")
	}

	db, err := database.NewDBManager(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		syncer: etl.NewSyncer(etl.NewSource(cfg.Source, nil), db, log),
	}

	if withAgent {
		detector, err := language.NewDetector(cfg.Chat.Language)
		if err != nil {
			db.Close()
			return nil, err
		}
		sqlAgent, err := agent.New(cfg.LLM, db.Engine(), log)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.chat = chat.NewService(sqlAgent, db, detector, log)
	}
	return a, nil
}

func (a *app) services() server.Services {
	return server.Services{Chat: a.chat, Sync: a.syncer, Store: a.db}
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("error closing database")
	}
}
