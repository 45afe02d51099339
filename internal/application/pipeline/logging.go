package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// LoggingBehavior logs the start and end of every request with elapsed time
// and an outcome tag. Request payloads are only logged when enabled, and are
// emitted as attribute groups so a redacting handler can mask sensitive keys.
type LoggingBehavior struct {
	logger     *slog.Logger
	logPayload bool
	clock      shared.Clock
}

// NewLoggingBehavior creates the logging behavior. A nil logger falls back to slog.Default().
func NewLoggingBehavior(logger *slog.Logger, logPayload bool, clock shared.Clock) *LoggingBehavior {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &LoggingBehavior{logger: logger, logPayload: logPayload, clock: clock}
}

func (b *LoggingBehavior) Name() string { return NameLogging }

func (b *LoggingBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	logger := b.logger.With("request_type", request.RequestType())
	start := b.clock.Now()

	if b.logPayload {
		logger.DebugContext(ctx, "request started", slog.Time("start", start), payloadAttr(request))
	} else {
		logger.DebugContext(ctx, "request started", slog.Time("start", start))
	}

	result := next(common.WithLogger(ctx, logger), request)

	end := b.clock.Now()
	level := slog.LevelInfo
	attrs := []any{
		slog.String("outcome", Outcome(result)),
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Duration("elapsed", end.Sub(start)),
	}
	if e := result.Error(); e != nil {
		attrs = append(attrs, slog.String("error", e.Error()))
		if e.Kind == shared.KindUnexpected {
			level = slog.LevelError
		} else {
			level = slog.LevelWarn
		}
	}
	logger.Log(ctx, level, "request finished", attrs...)

	return result
}

// Outcome returns "success" or "failure:<kind>"
func Outcome(result shared.Result[mediator.Response]) string {
	if e := result.Error(); e != nil {
		return "failure:" + string(e.Kind)
	}
	return "success"
}

// payloadAttr renders the request as a nested attribute group keyed by its json field names
func payloadAttr(request mediator.Request) slog.Attr {
	raw, err := json.Marshal(request)
	if err != nil {
		return slog.String("payload", "<unserializable>")
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return slog.String("payload", string(raw))
	}
	return toAttr("payload", decoded)
}

func toAttr(key string, v any) slog.Attr {
	obj, ok := v.(map[string]any)
	if !ok {
		return slog.Any(key, v)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	children := make([]any, 0, len(keys))
	for _, k := range keys {
		children = append(children, toAttr(k, obj[k]))
	}
	return slog.Group(key, children...)
}

var _ mediator.Behavior = (*LoggingBehavior)(nil)
