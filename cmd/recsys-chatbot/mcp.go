package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HHN/idealize-recommendation/internal/server"
)

func newMCPCmd() *cobra.Command {
	var transport, addr, sseEndpoint string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the chatbot as MCP tools over stdio or SSE",
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport != "stdio" && transport != "sse" {
				return fmt.Errorf("unknown transport: %s (expected: stdio or sse)", transport)
			}
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.NewMCPServer(a.services(), a.log)
			a.log.Info().Str("transport", transport).Msg("starting MCP server")
			if transport == "sse" {
				return srv.RunSSE(cmd.Context(), addr, sseEndpoint)
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "transport to use: stdio or sse")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on when using SSE transport")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path when using SSE transport")
	return cmd
}
