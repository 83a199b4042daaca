package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	ADIF     ADIFConfig
	Fields   FieldsConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig controls the log file. The terminal is owned by the TUI, so
// nothing is written to stderr once the program is running.
type LoggingConfig struct {
	Path  string
	Level string
}

// ADIFConfig holds import/export settings.
type ADIFConfig struct {
	Directory string
}

// FieldsConfig lists the record fields shown as columns, in order.
type FieldsConfig struct {
	Selected []string
}

// DefaultSelectedFields is the column set used when the config names none.
var DefaultSelectedFields = []string{"CALL", "QSO_DATE", "TIME_ON", "FREQ", "BAND", "MODE", "RST_SENT", "RST_RCVD"}

// Load reads configuration from file and env. Env var overrides use prefix QSOLOG_.
// An explicit path wins over QSOLOG_CONFIG, which wins over the default location.
func Load(path string) (Config, error) {
	v := newViper()

	if path == "" {
		path = os.Getenv("QSOLOG_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "qsolog"))
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	if len(c.Fields.Selected) == 0 {
		c.Fields.Selected = append([]string(nil), DefaultSelectedFields...)
	}
	for i, f := range c.Fields.Selected {
		c.Fields.Selected[i] = strings.ToUpper(strings.TrimSpace(f))
	}
	return c, nil
}

// Save writes the provided config to path (or the default location when path
// is empty), creating the config directory if needed.
func Save(cfg Config, path string) error {
	if path == "" {
		path = os.Getenv("QSOLOG_CONFIG")
	}
	if path == "" {
		path = filepath.Join(homeDir(), ".config", "qsolog", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir config dir")
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("logging.path", cfg.Logging.Path)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("adif.directory", cfg.ADIF.Directory)
	v.Set("fields.selected", cfg.Fields.Selected)

	if err := v.WriteConfigAs(path); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	home := homeDir()

	// default values
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "qsolog", "logbook.db"))
	v.SetDefault("logging.path", filepath.Join(home, ".local", "state", "qsolog", "qsolog.log"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("adif.directory", home)
	v.SetDefault("fields.selected", DefaultSelectedFields)

	v.SetConfigType("toml")
	v.SetEnvPrefix("QSOLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}
