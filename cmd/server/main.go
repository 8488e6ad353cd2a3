// Package main implements the card queue server: it accepts new cards
// over HTTP, serves the pending set to sync clients and records their
// delivery reports.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	app, err := newApplication()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if *migrateOnly {
		if err := app.migrate(); err != nil {
			app.logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		app.logger.Info("migrations applied")
		return
	}

	if err := app.migrate(); err != nil {
		app.logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.serve(ctx); err != nil {
		app.logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
