package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/tabula/pkg/tabula"
)

// Config represents the tabula.yaml configuration file.
type Config struct {
	DatabaseURL string              `yaml:"database_url"`
	Dialect     string              `yaml:"dialect"`
	LogLevel    string              `yaml:"log_level"`
	Timeout     time.Duration       `yaml:"timeout"`
	Concurrency int                 `yaml:"concurrency"`
	MetricsAddr string              `yaml:"metrics_addr"`
	Tables      tabula.Declarations `yaml:"tables"`

	// path is the file the configuration was read from, if any.
	path string
}

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults
//
// A missing file is only an error when it was named explicitly through
// --config or TABULA_CONFIG.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
	}

	path := configFile
	explicit := cmd.Flags().Changed("config")
	if envPath := os.Getenv("TABULA_CONFIG"); envPath != "" && !explicit {
		path = envPath
		explicit = true
	}

	err := readConfigFile(path, cfg)
	switch {
	case err == nil:
		// Handle env var interpolation in database_url
		cfg.DatabaseURL = expandEnvVars(cfg.DatabaseURL)
		cfg.path = path
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	// Override with env vars
	if envURL := os.Getenv("DATABASE_URL"); envURL != "" {
		cfg.DatabaseURL = envURL
	}

	// Override with CLI flags (highest priority)
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// readConfigFile decodes the YAML file at path into cfg.
func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

// newLogger returns a text logger on w at the named level.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// newClient connects using cfg and declares its tables.
func newClient(ctx context.Context, cmd *cobra.Command, cfg *Config) (*tabula.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, tabula.ErrMissingDatabaseURL
	}

	logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	opts := []tabula.Option{
		tabula.WithDatabaseURL(cfg.DatabaseURL),
		tabula.WithLogger(logger),
	}
	if cfg.Dialect != "" {
		opts = append(opts, tabula.WithDialect(cfg.Dialect))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, tabula.WithTimeout(cfg.Timeout))
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, tabula.WithConcurrency(cfg.Concurrency))
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, tabula.WithMetrics("tabula"))
	}

	client, err := tabula.Open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := client.Declare(cfg.Tables); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// setup loads the configuration and opens a client in one step.
func setup(cmd *cobra.Command) (*Config, *tabula.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cmd.Context(), cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
