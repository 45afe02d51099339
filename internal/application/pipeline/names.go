package pipeline

// Behavior names as they appear in pipeline.behaviors configuration
const (
	NameTracing       = "tracing"
	NameLogging       = "logging"
	NameMetrics       = "metrics"
	NameRateLimit     = "ratelimit"
	NameAuthorization = "authorization"
	NameValidation    = "validation"
	NameCaching       = "caching"
)

// DefaultOrder is the pipeline used when configuration does not override it.
// Outermost first: tracing sees everything, caching sits closest to the handler.
var DefaultOrder = []string{
	NameTracing,
	NameLogging,
	NameMetrics,
	NameRateLimit,
	NameAuthorization,
	NameValidation,
	NameCaching,
}
