package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// EventFanout broadcasts events to every live connection.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker.
// It only carries presence snapshots, messages go through the Deliverer.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.Event
	connections contract.IConnections
	metrics     *observability.Metrics
	sinkTimeout time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	events <-chan event.Event,
	connections contract.IConnections,
	metrics *observability.Metrics,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		connections: connections,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout One sink for each connection
// A slow connection only costs its own timeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.Event) {
	name := string(evt.Name())
	for _, conn := range w.connections.All() {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		err := conn.Consume(sinkCtx, evt)
		cancel()
		if err != nil {
			w.metrics.IncrDeliveryFailure(name)
			w.log.Debug("Broadcast dropped", "connection", conn.ID(), "event", name, "error", err)
			continue
		}
		w.metrics.IncrDelivered(name)
	}
}
