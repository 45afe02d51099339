package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

const tracerName = "mediator.pipeline"

// TracingBehavior opens one span per dispatched request
type TracingBehavior struct {
	tracer trace.Tracer
}

// NewTracingBehavior uses the global tracer provider when tracer is nil
func NewTracingBehavior(tracer trace.Tracer) *TracingBehavior {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &TracingBehavior{tracer: tracer}
}

func (b *TracingBehavior) Name() string { return NameTracing }

func (b *TracingBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	requestType := request.RequestType()
	ctx, span := b.tracer.Start(ctx, "mediator.send "+requestType,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("mediator.request_type", requestType)),
	)
	defer span.End()

	result := next(ctx, request)

	span.SetAttributes(attribute.String("mediator.outcome", Outcome(result)))
	if e := result.Error(); e != nil {
		span.SetAttributes(attribute.String("mediator.error_kind", string(e.Kind)))
		span.RecordError(e)
		span.SetStatus(codes.Error, e.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result
}

var _ mediator.Behavior = (*TracingBehavior)(nil)
