package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/dreamdoor/internal/db"
)

// Environment variables read by the CLI.
const (
	envAPIKey      = "REALTY_RAPIDAPI_KEY"
	envAPIKeyAlias = "RAPIDAPI_KEY"
	envDB          = "DREAMDOOR_DB"
	envTimezone    = "DREAMDOOR_TZ"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	APIKey   string `yaml:"api_key,omitempty" json:"api_key"`
	Database string `yaml:"database,omitempty" json:"database"`
	Timezone string `yaml:"timezone,omitempty" json:"timezone"`
}

// configKeys are the keys accepted by "config set".
var configKeys = []string{"api_key", "database", "timezone"}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dreamdoor", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// loadDotEnv loads .env from the working directory when present.
// Variables already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading .env: %w", err)
}

// getAPIKey returns the RapidAPI key from env vars or config.
func getAPIKey() string {
	for _, name := range []string{envAPIKey, envAPIKeyAlias} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.APIKey
	}
	return ""
}

// getDBTarget returns the database path or DSN from the --db flag,
// env var, config, or default path.
func getDBTarget() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if v := os.Getenv(envDB); v != "" {
		return v, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	return db.DefaultPath()
}

// getLocation returns the zone naive listing timestamps are read in,
// from the --tz flag, env var, config, or UTC.
func getLocation() (*time.Location, error) {
	name := flagTZ
	if name == "" {
		name = os.Getenv(envTimezone)
	}
	if name == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		name = cfg.Timezone
	}
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
		Long:  "Show or change settings saved in ~/.config/dreamdoor/config.yaml. Flags and environment variables override saved values.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Save a setting (api_key, database, timezone)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print saved settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(cmd)
			},
		},
	)

	return cmd
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "api_key":
		cfg.APIKey = value
	case "database":
		cfg.Database = value
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		cfg.Timezone = value
	default:
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(configKeys, ", "))
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", key)
	return nil
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.APIKey = maskSecret(cfg.APIKey)

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), cfg)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "api_key:  %s\n", orDash(cfg.APIKey))
	fmt.Fprintf(out, "database: %s\n", orDash(cfg.Database))
	fmt.Fprintf(out, "timezone: %s\n", orDash(cfg.Timezone))
	return nil
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
