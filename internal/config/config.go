// Package config provides configuration loading and structs for the kazoeru
// builder and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Build   BuildConfig   `yaml:"build"`
	Query   QueryConfig   `yaml:"query"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReloadOnChange bool   `yaml:"reload_on_change"`
}

// StorageConfig holds the paths of the scripture source and every build artifact.
type StorageConfig struct {
	SourcePath     string `yaml:"source_path"`
	IndexPath      string `yaml:"index_path"`
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// BuildConfig holds settings for the offline build.
type BuildConfig struct {
	Workers     int   `yaml:"workers"`
	Compress    bool  `yaml:"compress"`
	Concordance *bool `yaml:"concordance"`
}

// ConcordanceOrDefault returns whether the build writes the verse
// concordance; defaults to true when unset.
func (b *BuildConfig) ConcordanceOrDefault() bool {
	if b.Concordance != nil {
		return *b.Concordance
	}
	return true
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	DefaultGranularity  string `yaml:"default_granularity"`
	ConcordanceLimit    int    `yaml:"concordance_limit"`
	MaxConcordanceLimit int    `yaml:"max_concordance_limit"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.SourcePath = expandPath(cfg.Storage.SourcePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)

	return &cfg, nil
}

// Default returns a Config with every default applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
