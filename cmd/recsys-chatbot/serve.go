package main

import (
	"github.com/spf13/cobra"

	"github.com/HHN/idealize-recommendation/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr        string
		syncOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chatbot HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx := cmd.Context()
			if syncOnStart {
				// a failed sync leaves the previous data in place
				if _, err := a.syncer.Run(ctx); err != nil {
					a.log.Warn().Err(err).Msg("initial sync failed, serving existing data")
				}
			}
			return server.NewHTTPServer(a.cfg.Server, a.services(), a.log).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&syncOnStart, "sync-on-start", false, "run the ETL sync before serving")
	return cmd
}
