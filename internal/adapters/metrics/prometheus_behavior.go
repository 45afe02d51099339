package metrics

import (
	"context"
	"time"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/application/pipeline"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// PrometheusBehavior records duration, outcome and in-flight count for every request
type PrometheusBehavior struct {
	collector *RequestMetricsCollector
}

func NewPrometheusBehavior(collector *RequestMetricsCollector) *PrometheusBehavior {
	return &PrometheusBehavior{collector: collector}
}

func (b *PrometheusBehavior) Name() string { return pipeline.NameMetrics }

func (b *PrometheusBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	// Skip metrics if collector is nil (metrics disabled)
	if b.collector == nil {
		return next(ctx, request)
	}

	requestType := request.RequestType()
	b.collector.started(requestType)
	defer b.collector.finished(requestType)

	start := time.Now()
	result := next(ctx, request)

	var errorKind string
	if e := result.Error(); e != nil {
		errorKind = string(e.Kind)
	}
	b.collector.RecordRequest(requestType, time.Since(start).Seconds(), errorKind)

	return result
}

var _ mediator.Behavior = (*PrometheusBehavior)(nil)
