// Package config provides configuration management for the inventory loader.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "INVLOAD"

// Load reads configuration from the specified YAML file and environment variables.
// Environment variables take precedence over file values.
// Environment variable format: INVLOAD_<SECTION>_<KEY> (e.g., INVLOAD_SINK_POSTGRES_DSN)
// An empty configPath skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.location", "lambda256_server_info.csv")
	v.SetDefault("source.timeout", 30*time.Second)
	v.SetDefault("source.s3.region", "us-east-1")
	v.SetDefault("source.s3.endpoint", "")
	v.SetDefault("source.s3.path_style", false)
	v.SetDefault("source.s3.access_key_id", "")
	v.SetDefault("source.s3.secret_access_key", "")
	v.SetDefault("source.s3.session_token", "")

	// Sink defaults
	v.SetDefault("sink.mode", SinkModeSQLite)
	v.SetDefault("sink.sqlite.path", "data/lambda256_server_info.db")
	v.SetDefault("sink.postgres.dsn", "postgres://hyperpulse@localhost:5432/hyperpulse_ops?sslmode=disable")
	v.SetDefault("sink.postgres.timeout", 5*time.Minute)
	v.SetDefault("sink.postgres.apply_schema", true)
	v.SetDefault("sink.script.output", "-")
	v.SetDefault("sink.script.include_schema", false)

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.formats", []string{})
	v.SetDefault("report.filename_template", "server_inventory_{{.Date}}")
	v.SetDefault("report.html_template", "")
	v.SetDefault("report.timezone", "Asia/Seoul")

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// HTTP retry defaults
	v.SetDefault("http.retry.max_retries", 3)
	v.SetDefault("http.retry.base_delay", 1*time.Second)
}
