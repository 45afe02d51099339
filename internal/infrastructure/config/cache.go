package config

import "time"

// CacheConfig selects the response cache backing the caching behavior
type CacheConfig struct {
	// Cache type: "memory" or "redis"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory redis"`

	// TTL applied when a request does not choose its own
	DefaultTTL time.Duration `mapstructure:"default_ttl" yaml:"default_ttl" validate:"gt=0"`

	// Upper bound on in-memory entries, 0 for unbounded
	Capacity uint64 `mapstructure:"capacity" yaml:"capacity"`

	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	// URL such as redis://:password@localhost:6379/0, takes precedence over Addr
	URL      string `mapstructure:"url" yaml:"url,omitempty"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"min=0"`

	// Prefix prepended to every key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// MessagingConfig controls forwarding of domain events to NATS
type MessagingConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	NATS    NATSConfig    `mapstructure:"nats" yaml:"nats"`
	Breaker BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

// BreakerConfig stops forwarding for Cooldown after MaxFailures consecutive publish errors
type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" yaml:"max_failures" validate:"min=1"`
	Cooldown    time.Duration `mapstructure:"cooldown" yaml:"cooldown" validate:"gt=0"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL string `mapstructure:"url" yaml:"url" validate:"required"`

	// Events are published on <subject_prefix>.<event type>
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix" validate:"required"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}
