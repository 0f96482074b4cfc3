package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// Deliverer pushes persisted messages to live connections.
// Delivery is best effort: a failed send is logged and dropped, the stored message
// is reconciled on the receiver's next fetch.
type Deliverer struct {
	log         *slog.Logger
	presence    contract.IPresenceRegistry
	rooms       contract.IRoomTracker
	connections contract.IConnections
	metrics     *observability.Metrics
	sinkTimeout time.Duration
}

func NewDeliverer(
	log *slog.Logger,
	presence contract.IPresenceRegistry,
	rooms contract.IRoomTracker,
	connections contract.IConnections,
	metrics *observability.Metrics,
	sinkTimeout time.Duration,
) *Deliverer {
	return &Deliverer{
		log:         log,
		presence:    presence,
		rooms:       rooms,
		connections: connections,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
	}
}

// Deliver sends newMessage to, in order:
// every connection joined to the chat room, the receiver's connections outside the room,
// the sender's connections outside the room.
// A connection never gets the same message twice.
// When the message was created seen, the sender is told right away.
func (d *Deliverer) Deliver(ctx context.Context, msg chat.Message, c chat.Chat) {
	receiverID := c.OtherParticipant(msg.Sender)

	targets := newTargets()
	targets.add(d.rooms.Members(msg.ChatID)...)
	if receiverID != "" {
		targets.add(d.presence.ConnectionsOf(receiverID)...)
	}
	targets.add(d.presence.ConnectionsOf(msg.Sender)...)

	d.SendToConnections(ctx, targets.ids, event.NewMessage{Message: msg})

	if msg.Seen && receiverID != "" {
		d.NotifySeen(ctx, msg.Sender, event.MessagesSeen{
			ChatID:     msg.ChatID,
			SeenBy:     receiverID,
			MessageIDs: []string{msg.ID},
		})
	}
}

// NotifySeen sends messagesSeen to every connection of the recipient.
func (d *Deliverer) NotifySeen(ctx context.Context, recipientID string, seen event.MessagesSeen) {
	if len(seen.MessageIDs) == 0 {
		return
	}
	d.SendToConnections(ctx, d.presence.ConnectionsOf(recipientID), seen)
}

// SendToConnections resolves each id and sends the event with a per-sink timeout.
// Unknown ids belong to connections already gone and are skipped.
func (d *Deliverer) SendToConnections(ctx context.Context, connIDs []string, e event.Event) {
	name := string(e.Name())
	for _, id := range connIDs {
		conn, ok := d.connections.Get(id)
		if !ok {
			d.log.Debug("Connection gone before delivery", "connection", id, "event", name)
			continue
		}
		if err := d.send(ctx, conn, e); err != nil {
			d.metrics.IncrDeliveryFailure(name)
			d.log.Debug("Delivery dropped", "connection", id, "event", name, "error", err)
			continue
		}
		d.metrics.IncrDelivered(name)
	}
}

func (d *Deliverer) send(ctx context.Context, sink contract.EventSink, e event.Event) error {
	if d.sinkTimeout <= 0 {
		return sink.Consume(ctx, e)
	}
	sinkCtx, cancel := context.WithTimeout(ctx, d.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, e)
}

// targets keeps insertion order and drops duplicates.
type targets struct {
	seen Set
	ids  []string
}

func newTargets() *targets {
	return &targets{seen: make(Set)}
}

func (t *targets) add(ids ...string) {
	for _, id := range ids {
		if _, ok := t.seen[id]; ok {
			continue
		}
		t.seen[id] = struct{}{}
		t.ids = append(t.ids, id)
	}
}
