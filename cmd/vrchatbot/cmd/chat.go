package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/vrchatbot/bot"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal",
		Long: `Reads one message per line from stdin and prints the bot's replies.
Try "vrchelp" for the list of commands.`,
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

			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				replies, err := a.bot.Handle(cmd.Context(), bot.Message{SessionID: sessionID, Text: sc.Text()})
				if err != nil {
					return err
				}
				for _, reply := range replies {
					fmt.Fprintln(out, reply)
				}
			}
			return sc.Err()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "Session id to chat as")
	return cmd
}
