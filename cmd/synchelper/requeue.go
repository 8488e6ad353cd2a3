package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ankiqueue/ankiqueue/internal/client"
	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/platform/logger"
	"github.com/ankiqueue/ankiqueue/internal/syncer"
)

var requeueCmd = &cobra.Command{
	Use:   "requeue <card-id>",
	Short: "Move a failed card back to pending",
	Long: `Ask the server to re-arm a failed card so the next sync cycle
attempts it again. Failed cards are never retried automatically; this
is the operator's lever after fixing whatever made delivery fail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid card id %q", args[0])
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateSync(); err != nil {
			return err
		}
		log, err := logger.Setup(cfg.Log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Sync.TimeoutSeconds)*time.Second*2)
		defer cancel()

		endpoint, err := resolveEndpoint(ctx, cfg)
		if err != nil {
			return err
		}

		c := client.New(endpoint, cfg.Auth.Secret,
			time.Duration(cfg.Sync.TimeoutSeconds)*time.Second, log)
		card, err := c.Requeue(ctx, id)
		if err != nil {
			return err
		}

		cmd.Printf("card %d is %s again (attempts so far: %d)\n", card.ID, card.Status, card.Attempts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requeueCmd)
}

// resolveEndpoint probes the candidate endpoints and returns the first
// one that answers.
func resolveEndpoint(ctx context.Context, cfg *config.Config) (string, error) {
	urls, err := syncer.CandidateURLs(cfg.Sync.ServerURL, cfg.Sync.PortAttempts)
	if err != nil {
		return "", err
	}

	timeout := time.Duration(cfg.Sync.TimeoutSeconds) * time.Second
	for _, u := range urls {
		if client.New(u, cfg.Auth.Secret, timeout, nil).Ping(ctx) == nil {
			return u, nil
		}
	}
	return "", syncer.ErrNoEndpoint
}
