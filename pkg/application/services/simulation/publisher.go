package simulation

import (
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/infrastructure/events"
)

type publisher struct {
	store    events.EventStore
	streamID string
	logger   *zap.Logger
}

func newPublisher(store events.EventStore, streamID string, logger *zap.Logger) *publisher {
	if streamID == "" {
		streamID = "simulation"
	}
	return &publisher{store: store, streamID: streamID, logger: logger}
}

func (p *publisher) publish(eventType string, data interface{}) {
	if p.store == nil {
		return
	}
	if err := p.store.AppendEvent(p.streamID, events.NewEvent(eventType, p.streamID, data)); err != nil {
		p.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
