package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/platform/anki"
	"github.com/ankiqueue/ankiqueue/internal/platform/logger"
	"github.com/ankiqueue/ankiqueue/internal/syncer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the server continuously",
	Long: `Run sync cycles at the configured interval until interrupted.
On shutdown a held report is flushed first, so an outcome that was
delivered but not yet acknowledged is not stranded until the next
start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSyncer(func(ctx context.Context, s *syncer.Syncer) error {
			err := s.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sync cycle and exit",
	Long: `Run one full cycle (resolve endpoint, flush held report, fetch,
deliver, report) and exit. Intended for cron-style scheduling and for
manual runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSyncer(func(ctx context.Context, s *syncer.Syncer) error {
			return s.RunOnce(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
}

// withSyncer loads configuration, wires the syncer and runs fn with a
// signal-cancelled context.
func withSyncer(fn func(ctx context.Context, s *syncer.Syncer) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSync(); err != nil {
		return err
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	state, err := syncer.OpenState(cfg.Sync.StatePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := state.Close(); err != nil {
			log.Error("failed to close state store", slog.String("error", err.Error()))
		}
	}()

	deliverer := anki.NewDeliverer(cfg.Anki, log)
	s, err := syncer.New(cfg.Sync, cfg.Auth.Secret, deliverer, state, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, s)
}
