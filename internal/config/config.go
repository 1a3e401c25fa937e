// Package config manages the pcrm settings file.
//
// The same YAML file holds the database location and the per-table identifier
// counters. Load resolves settings for the CLI through viper (file plus PCRM_*
// environment overrides). ReadFile and Save go through yaml.v3 directly so the
// counter store never persists environment overrides.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// FirstID is the first identifier handed out for a table.
const FirstID = 1

// DefaultTables are the tables created by Init.
var DefaultTables = []string{"contact", "meeting"}

// Config is the content of the settings file.
type Config struct {
	// Database is the directory holding one JSON file per table.
	Database string `yaml:"database" mapstructure:"database"`
	// NextIDs maps a table name to the next identifier to allocate.
	NextIDs map[string]int `yaml:"next_ids" mapstructure:"next_ids"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" mapstructure:"log_level"`
	// SeqURL enables shipping logs to a Seq server when set.
	SeqURL string `yaml:"seq_url,omitempty" mapstructure:"seq_url"`
	// History commits every mutation to a git repository in Database.
	History bool `yaml:"history,omitempty" mapstructure:"history"`
	// RecencyDays are the upper bounds, in days, of the recent, moderate and
	// stale buckets used when coloring contacts.
	RecencyDays []int `yaml:"recency_days,omitempty" mapstructure:"recency_days"`
}

// DefaultRecencyDays are the bucket bounds used when RecencyDays is unset.
var DefaultRecencyDays = []int{30, 90, 180}

// Default returns a configuration pointing at dbDir with fresh counters.
func Default(dbDir string) *Config {
	c := &Config{
		Database: dbDir,
		NextIDs:  make(map[string]int, len(DefaultTables)),
		LogLevel: "warn",
	}
	for _, t := range DefaultTables {
		c.NextIDs[t] = FirstID
	}
	return c
}

// DefaultPath returns the settings file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pcrm", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pcrm", "config.yaml")
}

// DefaultDatabaseDir returns the database directory proposed by "pcrm init".
func DefaultDatabaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pcrm")
}

// Init writes a fresh settings file at path. Existing counters are kept so
// re-initializing never reissues identifiers. A settings file that exists but
// cannot be read is a FILE_ERROR and is left untouched.
func Init(path, dbDir string) (*Config, error) {
	c := Default(dbDir)
	old, err := ReadFile(path)
	switch {
	case err == nil:
		for t, n := range old.NextIDs {
			if n > c.NextIDs[t] {
				c.NextIDs[t] = n
			}
		}
		if old.LogLevel != "" {
			c.LogLevel = old.LogLevel
		}
		c.SeqURL = old.SeqURL
		c.History = old.History
		c.RecencyDays = old.RecencyDays
	case !stderrors.Is(err, os.ErrNotExist):
		return nil, err
	}
	if err := c.Save(path); err != nil {
		return nil, err
	}
	return c, nil
}

// RaiseNextIDs lifts each counter in next to at least the given value. It
// reports whether a counter changed.
func (c *Config) RaiseNextIDs(next map[string]int) bool {
	changed := false
	for t, n := range next {
		if n > c.NextIDs[t] {
			c.NextIDs[t] = n
			changed = true
		}
	}
	return changed
}

// Load reads the settings file through viper, applying PCRM_* environment
// overrides. A missing file is a FILE_ERROR: the database must be initialized.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", "warn")
	v.SetDefault("recency_days", DefaultRecencyDays)

	if err := v.ReadInConfig(); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, crmerrors.FileError(fmt.Sprintf("config file %s not found, run \"pcrm init\"", path), err)
		}
		return nil, crmerrors.FileError("failed to read config "+path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, crmerrors.FileError("failed to parse config "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile decodes the settings file as stored on disk.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crmerrors.FileError("failed to read config "+path, err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, crmerrors.FileError("failed to parse config "+path, err)
	}
	if c.NextIDs == nil {
		c.NextIDs = map[string]int{}
	}
	return c, nil
}

// Save writes the settings file, creating its directory when needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return crmerrors.FileError("failed to create config directory", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return crmerrors.FileError("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return crmerrors.FileError("failed to write config "+path, err)
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database == "" {
		return crmerrors.FileError("config: database is required", nil)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return crmerrors.BadInput(fmt.Sprintf("config: invalid log_level %q", c.LogLevel))
	}
	if len(c.RecencyDays) == 0 {
		c.RecencyDays = DefaultRecencyDays
	}
	if len(c.RecencyDays) != 3 {
		return crmerrors.BadInput(fmt.Sprintf("config: recency_days needs 3 values, got %d", len(c.RecencyDays)))
	}
	for i := 1; i < len(c.RecencyDays); i++ {
		if c.RecencyDays[i] <= c.RecencyDays[i-1] {
			return crmerrors.BadInput("config: recency_days must be increasing")
		}
	}
	for t, n := range c.NextIDs {
		if n < FirstID {
			return crmerrors.FileError(fmt.Sprintf("config: next_ids.%s must be >= %d", t, FirstID), nil)
		}
	}
	return nil
}
