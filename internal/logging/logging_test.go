package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/jask/qsolog/internal/config"
)

func TestInitWritesToFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "state", "qsolog.log")
	closer, err := Init(config.LoggingConfig{Path: path, Level: "debug"})
	require.NoError(t, err)

	log.Debug().Str("log", "Home").Msg("log created")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"log created"`)
	require.Contains(t, string(data), `"log":"Home"`)
}

func TestInitRejectsBadLevel(t *testing.T) {
	_, err := Init(config.LoggingConfig{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	require.Error(t, err)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	level, err := parseLevel("")
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, level)
}
