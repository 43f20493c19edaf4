// Package main implements the agencyd CLI.
//
// agencyd resolves its configuration, wires the capability registry, and
// either runs a single demonstration task through the orchestrator or
// starts an interactive session.
//
// Usage:
//
//	# Run the demonstration task with the default configuration
//	agencyd
//
//	# Use an override configuration file
//	agencyd --config ./agencyd.yaml
//
//	# Start an interactive session
//	agencyd --interactive
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
	"github.com/fyrsmithlabs/agencyd/internal/logging"
	"github.com/fyrsmithlabs/agencyd/internal/metadata"
	"github.com/fyrsmithlabs/agencyd/internal/orchestrator"
	"github.com/fyrsmithlabs/agencyd/internal/services"
	"github.com/fyrsmithlabs/agencyd/internal/tui"
)

var (
	configPath  string
	interactive bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agencyd",
	Short: "Task orchestration daemon",
	Long: `agencyd coordinates task processing across its capabilities: a
processing engine backed by an embedded memory store, a context API
client, a metadata aggregator, and a file-backed result store.

Without flags it runs a single demonstration task and prints the
response envelope as JSON. With --interactive it starts a terminal
session that processes each submitted line.`,
	Version:       metadata.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an override configuration file")
	rootCmd.PersistentFlags().BoolVar(&interactive, "interactive", false, "start an interactive session")
}

// run resolves configuration, builds the registry, and dispatches to the
// selected mode.
func run(ctx context.Context, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	logger, err := logging.New(logging.FromApp(cfg))
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	reg, err := services.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("building capability registry: %w", err)
	}

	if interactive {
		logger.Info("starting interactive session")
		return tui.Run(reg.Processor(), reg.Memory(), reg.Metadata())
	}

	return runDemoTask(ctx, reg, logger, out)
}

// runDemoTask processes a fixed demonstration task through the full
// pipeline and prints the response envelope.
func runDemoTask(ctx context.Context, reg services.Registry, logger *zap.Logger, out io.Writer) error {
	orch, err := orchestrator.New(orchestrator.Options{
		Engine:   reg.Processor(),
		Contexts: reg.ContextAPI(),
		Store:    reg.Storage(),
		Metadata: reg.Metadata(),
		Logger:   logger.Named("orchestrator"),
	})
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}

	task := orchestrator.Task{
		ID:      "test-001",
		Content: "This is a test task for agencyd",
	}

	env, err := orch.ProcessTask(ctx, task)
	if err != nil {
		return fmt.Errorf("processing task %s: %w", task.ID, err)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response envelope: %w", err)
	}

	fmt.Fprintln(out, string(data))
	return nil
}
