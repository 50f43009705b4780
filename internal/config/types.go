package config

import (
	"os"
	"time"
)

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel      string              `yaml:"log_level" mapstructure:"log_level"`
	LogFile       string              `yaml:"log_file" mapstructure:"log_file"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" mapstructure:"elasticsearch"`
	Export        ExportConfig        `yaml:"export" mapstructure:"export"`
	Monitor       MonitorConfig       `yaml:"monitor" mapstructure:"monitor"`
}

// ElasticsearchConfig holds search backend connection configuration.
type ElasticsearchConfig struct {
	Addresses   []string `yaml:"addresses,flow" mapstructure:"addresses"`
	Username    string   `yaml:"username" mapstructure:"username"`
	Password    *string  `yaml:"password,omitempty" mapstructure:"password"`
	PasswordEnv string   `yaml:"password_env" mapstructure:"password_env"`

	// Timeout bounds a single network round-trip, e.g. "10s". It is not
	// the scroll validity window (export.scroll_duration).
	Timeout string `yaml:"timeout" mapstructure:"timeout"`
}

// ResolvePassword returns the password from config or falls back to the
// environment variable named by password_env.
func (c *ElasticsearchConfig) ResolvePassword() string {
	if c.Password != nil && *c.Password != "" {
		return *c.Password
	}
	return os.Getenv(c.PasswordEnv)
}

// CallTimeout parses the per-call network timeout.
func (c *ElasticsearchConfig) CallTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Timeout)
}

// ExportConfig holds export session configuration.
type ExportConfig struct {
	Index        string `yaml:"index" mapstructure:"index"`
	Query        string `yaml:"query" mapstructure:"query"`
	BatchSize    int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMs int    `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`

	// ScrollDuration is the server-side cursor validity window, e.g. "10m".
	ScrollDuration string `yaml:"scroll_duration" mapstructure:"scroll_duration"`

	Output string `yaml:"output" mapstructure:"output"`
	Format string `yaml:"format" mapstructure:"format"`
}

// KeepAlive parses the scroll validity window.
func (c *ExportConfig) KeepAlive() (time.Duration, error) {
	return time.ParseDuration(c.ScrollDuration)
}

// RetryDelay returns the delay between continuation retries. Zero means
// retries are immediate, which is the documented default.
func (c *ExportConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// MonitorConfig holds the optional monitoring HTTP server configuration.
type MonitorConfig struct {
	// Addr is the listen address for /healthz and /metrics, e.g.
	// "127.0.0.1:7600". Empty disables the server.
	Addr string `yaml:"addr" mapstructure:"addr"`
}
