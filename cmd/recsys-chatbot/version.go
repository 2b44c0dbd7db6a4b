package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HHN/idealize-recommendation/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (revision %s, built %s)\n",
				buildinfo.Name, buildinfo.Version, buildinfo.Revision, buildinfo.BuildDate)
		},
	}
}
