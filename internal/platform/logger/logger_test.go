package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		log, err := Setup(config.LogConfig{Level: level})
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}
}

func TestSetupInvalidLevelFallsBack(t *testing.T) {
	log, err := Setup(config.LogConfig{Level: "verbose"})
	require.NoError(t, err)
	assert.NotNil(t, log)
	// Falls back to info: debug must be disabled.
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestFromContext(t *testing.T) {
	base := slog.Default()
	assert.Equal(t, base, FromContext(context.Background()))

	scoped := base.With("trace_id", "abc")
	ctx := WithLogger(context.Background(), scoped)
	assert.Equal(t, scoped, FromContext(ctx))
}
