package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QSOLOG_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "qsolog", "logbook.db"), cfg.Database.Path)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, DefaultSelectedFields, cfg.Fields.Selected)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "qsolog.toml")
	body := []byte(`[database]
path = "/tmp/station.db"

[fields]
selected = ["call", " band ", "MODE"]
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("QSOLOG_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/station.db", cfg.Database.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, []string{"CALL", "BAND", "MODE"}, cfg.Fields.Selected)
}

func TestLoadMissingExplicitFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg, err := Load(filepath.Join(dir, "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, dir, cfg.ADIF.Directory)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.toml")

	want := Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "log.db")},
		Logging:  LoggingConfig{Path: filepath.Join(dir, "qsolog.log"), Level: "warn"},
		ADIF:     ADIFConfig{Directory: dir},
		Fields:   FieldsConfig{Selected: []string{"CALL", "FREQ"}},
	}
	require.NoError(t, Save(want, path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
