package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmcleod/vrchatbot/internal/config"
)

// Version is overridden at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"storage":   "storage",
	"log-level": "log.level",
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "vrchatbot",
		Short: "vrchatbot is a VRChat chat bot",
		Long: `A chat bot that logs chat users into VRChat and answers lookups for them.
Run "vrchatbot serve" for the HTTP gateway or "vrchatbot chat" to talk to it
from a terminal.`,
		Version:      Version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Config file (default ./vrchatbot.yaml or ~/.vrchatbot/vrchatbot.yaml)")
	pf.String("data-dir", "", "Directory for stored logins")
	pf.String("storage", "", "Storage backend: file, bbolt or memory")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newSessionsCmd(opts),
		newLogoutCmd(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges defaults, the config file, VRCHATBOT_* variables and the
// flags set on cmd, in increasing precedence.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New(o.configFile)
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return config.Load(v)
}
