package config

import "time"

// PipelineConfig controls which behaviors wrap every request, outermost first
type PipelineConfig struct {
	// Behavior names, each listed at most once
	Behaviors []string `mapstructure:"behaviors" yaml:"behaviors" validate:"unique,dive,oneof=tracing logging metrics ratelimit authorization validation caching"`

	// Log request payloads at debug level
	LogPayload bool `mapstructure:"log_payload" yaml:"log_payload"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig holds token bucket settings, applied per request type
type RateLimitConfig struct {
	// Requests per second, 0 disables limiting
	Requests float64 `mapstructure:"requests" yaml:"requests" validate:"min=0"`
	Burst    int     `mapstructure:"burst" yaml:"burst" validate:"min=1"`
}

// PolicyConfig points at the Rego policy used by the authorization behavior
type PolicyConfig struct {
	// Path to a .rego file; empty uses the built-in policy
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Query evaluated against the request input
	Query string `mapstructure:"query" yaml:"query" validate:"required"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address" validate:"required"`
	PIDFile         string        `mapstructure:"pid_file" yaml:"pid_file"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}
