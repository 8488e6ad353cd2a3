package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and from
// environment variables with the ANKIQUEUE_ prefix. Environment
// variables take precedence over file values. Section validation is
// left to the caller (ValidateServer / ValidateSync) since the two
// processes need different sections.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults mirror the original deployment: API on port 5000,
	// AnkiConnect on 8765, a 15 second poll interval.
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.port_attempts", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("sync.server_url", "http://localhost:5000")
	v.SetDefault("sync.port_attempts", 10)
	v.SetDefault("sync.interval_seconds", 15)
	v.SetDefault("sync.timeout_seconds", 10)
	v.SetDefault("sync.state_path", "ankiqueue-sync.db")
	v.SetDefault("anki.connect_url", "http://localhost:8765")
	v.SetDefault("anki.note_type", "Basic")
	v.SetDefault("anki.front_field", "Front")
	v.SetDefault("anki.back_field", "Back")
	v.SetDefault("anki.sentence_field", "Sentence")
	v.SetDefault("llm.model", "gemini-2.0-flash")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ANKIQUEUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not make Unmarshal see keys that were
	// never registered, so every key is bound explicitly. Without this
	// the keys that have no default (database.url, auth.secret, ...)
	// vanish when supplied only through the environment.
	for _, key := range []string{
		"server.host", "server.port", "server.port_attempts",
		"log.level", "log.file",
		"database.url",
		"auth.secret", "auth.secret_hash",
		"sync.server_url", "sync.port_attempts", "sync.interval_seconds",
		"sync.timeout_seconds", "sync.state_path",
		"anki.connect_url", "anki.deck", "anki.note_type",
		"anki.front_field", "anki.back_field", "anki.sentence_field",
		"llm.gemini_api_key", "llm.model",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults carry it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateServer checks the sections the queue server requires.
func (c *Config) ValidateServer() error {
	validate := validator.New()

	for name, section := range map[string]any{
		"server":   c.Server,
		"log":      c.Log,
		"database": c.Database,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}

	if c.Auth.Secret == "" && c.Auth.SecretHash == "" {
		return fmt.Errorf("invalid auth config: one of secret or secret_hash is required")
	}

	return nil
}

// ValidateSync checks the sections the sync helper requires.
func (c *Config) ValidateSync() error {
	validate := validator.New()

	for name, section := range map[string]any{
		"log":  c.Log,
		"sync": c.Sync,
		"anki": c.Anki,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("invalid auth config: secret is required")
	}

	return nil
}
