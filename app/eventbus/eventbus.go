package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// Topics published by the core. Consumers (UI fan-out, audit, stats) subscribe
// out of process; a publish failure never rolls back or blocks the caller.
const (
	TopicVoteAccepted   = "tournament.vote.accepted"
	TopicVoteRetracted  = "tournament.vote.retracted"
	TopicWinnerSelected = "tournament.slot.winner_selected"
	TopicSlotOpened     = "tournament.slot.opened"
)

// EventBus is the fire-and-forget notification surface.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

type eventBus struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewEventBus creates an EventBus publishing over NATS via watermill.
func NewEventBus(natsURL string, logger *slog.Logger) (EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:       natsURL,
			Marshaler: &wmnats.NATSMarshaler{},
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	return &eventBus{publisher: publisher, logger: logger}, nil
}

func (eb *eventBus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	if err := eb.publisher.Publish(topic, msg); err != nil {
		eb.logger.WarnContext(ctx, "Failed to publish event",
			attr.String("topic", topic),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	eb.logger.DebugContext(ctx, "Event published",
		attr.String("topic", topic),
		attr.String("message_id", msg.UUID),
	)
	return nil
}

func (eb *eventBus) Close() error {
	return eb.publisher.Close()
}
