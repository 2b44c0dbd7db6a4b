package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload projects, users and tags from the platform API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.syncer.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d projects, %d users, %d tags in %s\n",
				res.Projects, res.Users, res.Tags, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
