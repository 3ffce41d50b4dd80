// Package config gathers run settings from command-line flags, environment
// variables and an optional .env file.
//
// Precedence, highest first: explicitly set flags, FILEUPLOADER_* environment
// variables (including those loaded from .env), flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables, e.g. FILEUPLOADER_WEBHOOK.
const EnvPrefix = "FILEUPLOADER"

const (
	KeyFilename  = "filename"
	KeyWebhook   = "webhook"
	KeyPause     = "pause"
	KeyTimeout   = "timeout"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyNoTUI     = "no-tui"
	KeyEnvFile   = "env-file"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	Filename string
	Webhook  string
	// Pause stays raw so the resolver can tell "absent" from "unparseable".
	Pause     string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
	NoTUI     bool
}

// BindFlags registers every setting on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeyFilename, "", "path of the .csv, .xls or .xlsx file to upload")
	fs.String(KeyWebhook, "", "absolute url of the webhook that receives the rows")
	fs.String(KeyPause, "", "seconds to wait between rows; 0 sends all rows in one request")
	fs.Duration(KeyTimeout, DefaultTimeout, "timeout for each webhook request")
	fs.String(KeyLogLevel, "warn", "log level: debug, info, warn, error")
	fs.String(KeyLogFormat, "text", "log format: text or json")
	fs.Bool(KeyNoTUI, false, "use plain line prompts even on a terminal")
	fs.String(KeyEnvFile, ".env", "dotenv file loaded before reading the environment")
}

// Load resolves the settings bound by BindFlags.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	envFile, err := fs.GetString(KeyEnvFile)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := loadDotenv(envFile); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	cfg := &Config{
		Filename:  v.GetString(KeyFilename),
		Webhook:   v.GetString(KeyWebhook),
		Pause:     v.GetString(KeyPause),
		Timeout:   v.GetDuration(KeyTimeout),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		NoTUI:     v.GetBool(KeyNoTUI),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyTimeout)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.LogFormat)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s must be debug, info, warn or error, got %q", KeyLogLevel, c.LogLevel)
	}

	return nil
}

// loadDotenv never overrides variables that are already set. A missing file is fine.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
