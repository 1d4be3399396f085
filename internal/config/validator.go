// Package config provides configuration management for the inventory loader.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "sink.postgres.dsn")
	Tag     string      // Validation tag that failed (e.g., "required", "oneof")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// validate is the package-level validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	if errs := validateSinkConfig(&cfg.Sink); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if errs := validateTimezoneConfig(cfg); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// ValidateSink checks only the settings the selected sink mode depends on.
// Used after command line flags have been applied on top of the loaded config.
func ValidateSink(sink *SinkConfig) error {
	if errs := validateSinkConfig(sink); len(errs) > 0 {
		return errs
	}
	return nil
}

// validateSinkConfig validates the settings required by the selected sink mode.
func validateSinkConfig(sink *SinkConfig) ValidationErrors {
	var errors ValidationErrors

	switch sink.Mode {
	case SinkModeSQLite:
		if strings.TrimSpace(sink.SQLite.Path) == "" {
			errors = append(errors, &ValidationError{
				Field:   "sink.sqlite.path",
				Tag:     "required_for_mode",
				Value:   sink.SQLite.Path,
				Message: "path is required when sink mode is sqlite",
			})
		}
	case SinkModePostgres:
		if strings.TrimSpace(sink.Postgres.DSN) == "" {
			errors = append(errors, &ValidationError{
				Field:   "sink.postgres.dsn",
				Tag:     "required_for_mode",
				Value:   "",
				Message: "dsn is required when sink mode is postgres",
			})
		} else if _, err := pgx.ParseConfig(sink.Postgres.DSN); err != nil {
			errors = append(errors, &ValidationError{
				Field:   "sink.postgres.dsn",
				Tag:     "dsn",
				Value:   "<redacted>",
				Message: fmt.Sprintf("invalid postgres dsn: %v", err),
			})
		}
	}

	return errors
}

// validateTimezoneConfig validates the timezone configuration.
func validateTimezoneConfig(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	if cfg.Report.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Report.Timezone); err != nil {
			errors = append(errors, &ValidationError{
				Field:   "report.timezone",
				Tag:     "timezone",
				Value:   cfg.Report.Timezone,
				Message: fmt.Sprintf("invalid timezone: %s", cfg.Report.Timezone),
			})
		}
	}

	return errors
}

// formatFieldName converts the validator field namespace to a user-friendly format.
// Example: "Config.Sink.Postgres.DSN" -> "sink.postgres.dsn"
func formatFieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // Remove "Config"
	}

	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}

	return strings.Join(parts, ".")
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return fmt.Sprintf("invalid URL format: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}
