package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
)

// Provider profile events published by the profile service.
const (
	TopicProviderEvents     = "provider.events"
	ProviderProfileUpdated  = "provider.profile_updated"
	ProviderCalendarUpdated = "provider.calendar_updated"
	ProviderProfileDeleted  = "provider.profile_deleted"
)

// ProviderChangedEvent is the payload shared by all provider profile events.
type ProviderChangedEvent struct {
	ProviderID uuid.UUID `json:"provider_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProviderEventConsumer drops cached provider snapshots when a profile changes
// upstream, so the next search reads the new profile from Postgres.
type ProviderEventConsumer struct {
	consumer    *kafka.Consumer
	invalidator application.ProviderInvalidator
	logger      *zap.Logger
}

// NewProviderEventConsumer creates a new ProviderEventConsumer.
func NewProviderEventConsumer(
	brokers []string,
	groupID string,
	invalidator application.ProviderInvalidator,
	logger *zap.Logger,
) *ProviderEventConsumer {
	return &ProviderEventConsumer{
		consumer:    kafka.NewConsumer(brokers, groupID, TopicProviderEvents, logger),
		invalidator: invalidator,
		logger:      logger,
	}
}

// Start begins consuming provider events. This blocks until the context is cancelled.
func (c *ProviderEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ProviderEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ProviderEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from provider topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed messages are not retried
	}

	switch cloudEvent.Type {
	case ProviderProfileUpdated, ProviderCalendarUpdated, ProviderProfileDeleted:
		return c.handleProviderChanged(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled provider event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ProviderEventConsumer) handleProviderChanged(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ProviderChangedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse provider event data", zap.Error(err))
		return nil
	}
	if evt.ProviderID == uuid.Nil {
		c.logger.Warn("provider event without provider id", zap.String("type", cloudEvent.Type))
		return nil
	}

	if err := c.invalidator.Invalidate(ctx, evt.ProviderID); err != nil {
		c.logger.Error("failed to invalidate provider snapshot",
			zap.String("provider_id", evt.ProviderID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("provider snapshot invalidated",
		zap.String("provider_id", evt.ProviderID.String()),
		zap.String("type", cloudEvent.Type),
	)
	return nil
}
