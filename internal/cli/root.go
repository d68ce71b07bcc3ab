package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aringo/synacksync/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgPath string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "synacksync",
		Short:         "Mirror Synack tasks, targets, and patch verifications into Google Calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "path to the configuration file")
	root.AddCommand(newSyncCmd())
	root.AddCommand(newSetupCmd())
	return root
}

// Execute runs the CLI. The process exits non-zero only when a command
// returns an error; per-item sync failures are reported but do not change
// the exit status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
