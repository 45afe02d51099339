package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// EventMetricsCollector counts domain events forwarded outside the process
type EventMetricsCollector struct {
	forwardedTotal *prometheus.CounterVec
}

func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{
		forwardedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "forwarded_total",
				Help:      "Domain events forwarded to the message broker by type and status",
			},
			[]string{"event_type", "status"},
		),
	}
}

func (c *EventMetricsCollector) Register(registerer prometheus.Registerer) error {
	return registerAll(registerer, c.forwardedTotal)
}

func (c *EventMetricsCollector) RecordForwarded(eventType string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.forwardedTotal.WithLabelValues(eventType, status).Inc()
}

// InstrumentPublisher counts every event passing through publisher
func InstrumentPublisher(publisher common.EventPublisher, collector *EventMetricsCollector) common.EventPublisher {
	if collector == nil {
		return publisher
	}
	return &instrumentedPublisher{next: publisher, collector: collector}
}

type instrumentedPublisher struct {
	next      common.EventPublisher
	collector *EventMetricsCollector
}

func (p *instrumentedPublisher) PublishEvent(ctx context.Context, event shared.Event) error {
	err := p.next.PublishEvent(ctx, event)
	p.collector.RecordForwarded(event.EventType(), err == nil)
	return err
}

func (p *instrumentedPublisher) Close() error {
	return p.next.Close()
}
