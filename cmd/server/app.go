package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/platform/gemini"
	"github.com/ankiqueue/ankiqueue/internal/platform/logger"
	"github.com/ankiqueue/ankiqueue/internal/platform/postgres"
	"github.com/ankiqueue/ankiqueue/internal/ports"
	"github.com/ankiqueue/ankiqueue/internal/service"
)

// application holds the server's wired dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardService  service.CardService
	draftService service.DraftService // nil when no translator is configured
}

// newApplication loads configuration and wires every dependency the
// server needs. It fails fast: a misconfigured server should not start.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	cardStore := postgres.NewPostgresCardStore(db, log)
	cardService, err := service.NewCardService(service.NewCardRepositoryAdapter(cardStore, db), log)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:      cfg,
		logger:      log,
		db:          db,
		cardService: cardService,
	}

	if cfg.LLM.GeminiAPIKey != "" {
		translator, err := gemini.NewTranslator(context.Background(), cfg.LLM, log)
		if err != nil {
			return nil, fmt.Errorf("failed to set up translator: %w", err)
		}
		app.draftService, err = service.NewDraftService(cardService, translator, log)
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("no translator configured, draft endpoint disabled")
	}

	return app, nil
}

// serve binds a port from the configured range and runs the HTTP
// server until the context is cancelled, then shuts down gracefully.
func (app *application) serve(ctx context.Context) error {
	listener, port, err := ports.Listen(
		app.config.Server.Host,
		app.config.Server.Port,
		app.config.Server.PortAttempts,
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// The chosen port must be visible in the startup log; the sync
		// client operator reads it from here when probing fails.
		app.logger.Info("server listening",
			slog.String("host", app.config.Server.Host),
			slog.Int("port", port))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}

// cleanup releases held resources. Safe to call once at exit.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
