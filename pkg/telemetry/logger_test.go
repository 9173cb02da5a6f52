package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger, err = NewLogger(LoggingConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.log")
	logger, err := NewLogger(LoggingConfig{Level: "debug", Output: path})
	require.NoError(t, err)
	logger.Info().Str("component", "planner").Msg("model loaded")

	assert.FileExists(t, path)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Format: "console", Output: "stdout"})
	require.NoError(t, err)
}
