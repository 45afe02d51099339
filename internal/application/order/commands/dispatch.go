package commands

import (
	"context"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// dispatch publishes committed events. The command already succeeded, so
// subscriber failures are logged rather than returned.
func dispatch(ctx context.Context, publisher mediator.Publisher, events []shared.Event) {
	if publisher == nil {
		return
	}
	logger := common.LoggerFromContext(ctx)
	for _, e := range events {
		if err := publisher.Publish(ctx, e); err != nil {
			logger.WarnContext(ctx, "event subscriber failed",
				"event_type", e.EventType(),
				"event_id", e.EventID(),
				"error", err)
		}
	}
}
