package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validLogLevels lists recognized log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validFormats lists recognized output formats.
var validFormats = map[string]bool{
	"ndjson": true,
	"json":   true,
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
// The export index may be empty here; commands that need one enforce it,
// since it is commonly supplied by flag.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.LogLevel != "" && !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.LogLevel),
		})
	}

	if len(cfg.Elasticsearch.Addresses) == 0 {
		errs = append(errs, ValidationError{
			Field:   "elasticsearch.addresses",
			Message: "must contain at least one address",
		})
	}
	for _, addr := range cfg.Elasticsearch.Addresses {
		u, err := url.Parse(addr)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "elasticsearch.addresses",
				Message: fmt.Sprintf("%q is not a valid URL", addr),
			})
		}
	}

	if d, err := time.ParseDuration(cfg.Elasticsearch.Timeout); err != nil || d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "elasticsearch.timeout",
			Message: fmt.Sprintf("must be a positive duration, got %q", cfg.Elasticsearch.Timeout),
		})
	}

	if cfg.Export.BatchSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "export.batch_size",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Export.BatchSize),
		})
	}

	if cfg.Export.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "export.max_retries",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Export.MaxRetries),
		})
	}

	if cfg.Export.RetryDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "export.retry_delay_ms",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Export.RetryDelayMs),
		})
	}

	if d, err := time.ParseDuration(cfg.Export.ScrollDuration); err != nil || d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "export.scroll_duration",
			Message: fmt.Sprintf("must be a positive duration, got %q", cfg.Export.ScrollDuration),
		})
	}

	if !validFormats[cfg.Export.Format] {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("must be one of ndjson, json; got %q", cfg.Export.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
