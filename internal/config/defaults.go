package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.config/esdrain/esdrain.log"

	// Elasticsearch defaults.
	DefaultAddress     = "http://localhost:9200"
	DefaultPasswordEnv = "ESDRAIN_ES_PASSWORD"
	DefaultTimeout     = "10s"

	// Export defaults.
	DefaultQuery          = `{"query":{"match_all":{}}}`
	DefaultBatchSize      = 1000
	DefaultMaxRetries     = 3
	DefaultRetryDelayMs   = 0 // retries are immediate unless configured
	DefaultScrollDuration = "10m"
	DefaultOutput         = "-"
	DefaultFormat         = "ndjson"
)

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		Elasticsearch: ElasticsearchConfig{
			Addresses:   []string{DefaultAddress},
			PasswordEnv: DefaultPasswordEnv,
			Timeout:     DefaultTimeout,
		},
		Export: ExportConfig{
			Query:          DefaultQuery,
			BatchSize:      DefaultBatchSize,
			MaxRetries:     DefaultMaxRetries,
			RetryDelayMs:   DefaultRetryDelayMs,
			ScrollDuration: DefaultScrollDuration,
			Output:         DefaultOutput,
			Format:         DefaultFormat,
		},
	}
}

// setDefaults registers all default configuration values with a viper
// instance. Called before reading config files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)

	// Elasticsearch defaults
	v.SetDefault("elasticsearch.addresses", []string{DefaultAddress})
	v.SetDefault("elasticsearch.password_env", DefaultPasswordEnv)
	v.SetDefault("elasticsearch.timeout", DefaultTimeout)

	// Export defaults
	v.SetDefault("export.query", DefaultQuery)
	v.SetDefault("export.batch_size", DefaultBatchSize)
	v.SetDefault("export.max_retries", DefaultMaxRetries)
	v.SetDefault("export.retry_delay_ms", DefaultRetryDelayMs)
	v.SetDefault("export.scroll_duration", DefaultScrollDuration)
	v.SetDefault("export.output", DefaultOutput)
	v.SetDefault("export.format", DefaultFormat)

	// Monitor defaults (empty addr disables the server)
	v.SetDefault("monitor.addr", "")
}
