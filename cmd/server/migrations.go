package main

import (
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/ankiqueue/ankiqueue/migrations"
)

// migrate applies any pending migrations from the embedded set.
func (app *application) migrate() error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(app.db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
