package config

import "time"

// DefaultBehaviors is the pipeline used when none is configured, outermost first
var DefaultBehaviors = []string{"tracing", "logging", "metrics", "ratelimit", "authorization", "validation", "caching"}

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "mediator.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "mediator"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "orders"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Cache defaults
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 30 * time.Second
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 10000
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = "localhost:6379"
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = "mediator:"
	}

	// Messaging defaults
	if cfg.Messaging.NATS.URL == "" {
		cfg.Messaging.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Messaging.NATS.SubjectPrefix == "" {
		cfg.Messaging.NATS.SubjectPrefix = "mediator.events"
	}
	if cfg.Messaging.NATS.ConnectTimeout == 0 {
		cfg.Messaging.NATS.ConnectTimeout = 5 * time.Second
	}
	if cfg.Messaging.Breaker.MaxFailures == 0 {
		cfg.Messaging.Breaker.MaxFailures = 5
	}
	if cfg.Messaging.Breaker.Cooldown == 0 {
		cfg.Messaging.Breaker.Cooldown = 30 * time.Second
	}

	// Pipeline defaults
	if len(cfg.Pipeline.Behaviors) == 0 {
		cfg.Pipeline.Behaviors = append([]string(nil), DefaultBehaviors...)
	}
	if cfg.Pipeline.RateLimit.Burst == 0 {
		cfg.Pipeline.RateLimit.Burst = 50
	}

	// Policy defaults
	if cfg.Policy.Query == "" {
		cfg.Policy.Query = "data.mediator.authz.allow"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost:8080"
	}
	if cfg.Server.PIDFile == "" {
		cfg.Server.PIDFile = "/tmp/mediator.pid"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Tracing defaults
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "mediator"
	}
}
