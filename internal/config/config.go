// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Layer optional file and environment overrides in Load.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ServiceURL is the base URL of the humanizer pipeline service.
	ServiceURL string `koanf:"service_url"`

	// Strength is the default rewrite strength: light, medium, aggressive.
	Strength string `koanf:"strength"`

	// CleanTimeoutMS bounds the non-streaming clean request. The streaming
	// rewrite path carries no internal timeout; cancel via context instead.
	CleanTimeoutMS int `koanf:"clean_timeout_ms"`

	// ReadBufferSize is the chunk size used when draining stream bodies.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// HistoryPath locates the SQLite history database. Empty disables history.
	HistoryPath string `koanf:"history_path"`

	// HistoryLimit caps how many entries the history listing returns.
	HistoryLimit int `koanf:"history_limit"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on that address.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		ServiceURL:     "http://localhost:8000",
		Strength:       "medium",
		CleanTimeoutMS: 30_000,
		ReadBufferSize: 4096,
		HistoryPath:    "unhype_history.db",
		HistoryLimit:   20,
		MetricsAddr:    "",
	}
}
