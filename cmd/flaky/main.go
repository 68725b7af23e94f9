package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flaky/internal/cli"
	"flaky/internal/cli/commands"
	"flaky/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "flaky",
		Short:         "Flaky test detector",
		Long:          `Run a test suite repeatedly, or analyze the CTRF reports of earlier runs, and classify every test as stable, flaky, failing, unstable or insufficient data.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	log := cli.NewLogger()

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, log)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
