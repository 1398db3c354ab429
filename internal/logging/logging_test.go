package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-journal/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.log")

	logger := New(config.LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Str("trade_id", "TRADE-001").Msg("opened")
	logger.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trade_id":"TRADE-001"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	got := FromContext(WithLogger(context.Background(), logger))
	assert.Equal(t, zerolog.WarnLevel, got.GetLevel())
}
