// Package config provides configuration management for the inventory loader.
package config

import "time"

// Sink modes.
const (
	SinkModeSQLite   = "sqlite"
	SinkModePostgres = "postgres"
	SinkModeScript   = "script"
)

// Config is the root configuration structure for the inventory loader.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Sink    SinkConfig    `mapstructure:"sink" validate:"required"`
	Report  ReportConfig  `mapstructure:"report"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// SourceConfig describes where the CSV export is read from.
type SourceConfig struct {
	// Location is a local path, an http(s) URL or an s3://bucket/key URI.
	Location string        `mapstructure:"location"`
	Timeout  time.Duration `mapstructure:"timeout"` // Timeout for remote fetches
	S3       S3Config      `mapstructure:"s3"`
}

// S3Config contains settings for S3-compatible object storage (AWS S3, MinIO).
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"` // Custom endpoint, e.g. MinIO
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`     // Falls back to the default credential chain
	SecretAccessKey string `mapstructure:"secret_access_key"` // Falls back to the default credential chain
	SessionToken    string `mapstructure:"session_token"`
}

// SinkConfig selects and configures the load destination.
type SinkConfig struct {
	Mode     string         `mapstructure:"mode" validate:"oneof=sqlite postgres script"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Script   ScriptConfig   `mapstructure:"script"`
}

// SQLiteConfig contains configuration for the embedded database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig contains configuration for the networked database.
type PostgresConfig struct {
	DSN         string        `mapstructure:"dsn"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ApplySchema bool          `mapstructure:"apply_schema"` // Create missing tables before loading
}

// ScriptConfig contains configuration for rendering the load as a SQL script.
type ScriptConfig struct {
	Output        string `mapstructure:"output"` // "-" writes to stdout
	IncludeSchema bool   `mapstructure:"include_schema"`
}

// ReportConfig contains configurations for report generation.
type ReportConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	Formats          []string `mapstructure:"formats" validate:"dive,oneof=excel html"`
	FilenameTemplate string   `mapstructure:"filename_template"`
	HTMLTemplate     string   `mapstructure:"html_template"`
	Timezone         string   `mapstructure:"timezone"`
}

// MetricsConfig contains configuration for run metrics.
type MetricsConfig struct {
	// Textfile is the node_exporter textfile the run metrics are written to.
	// Empty disables metrics output.
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig contains configurations for logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// HTTPConfig contains HTTP client configurations including retry settings.
type HTTPConfig struct {
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}
