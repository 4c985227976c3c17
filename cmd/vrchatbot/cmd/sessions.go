package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored logins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions with stored login info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.sessions.Sessions()
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			slices.Sort(ids)
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout <session-id>",
		Short: "Remove a session's stored login info and cookies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sessions.RemoveLoginInfo(args[0]); err != nil {
				return fmt.Errorf("failed to remove login info: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed login info for %s\n", args[0])
			return nil
		},
	}
}
