// Package messaging delivers conversation messages between requesters and
// providers. Delivery is best-effort and guarded by a circuit breaker.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
)

const (
	// TopicConversationMessages carries messages to the conversation service.
	TopicConversationMessages = "conversation.messages"

	// EventMessagePosted is the CloudEvent type of a posted message.
	EventMessagePosted = "conversation.message_posted"

	source = "service-matching"
)

// ErrEmptyMessage is returned for a blank message body.
var ErrEmptyMessage = errors.New("message body is empty")

// ConversationMessage is one message in the thread between two accounts about a booking.
type ConversationMessage struct {
	BookingID   uuid.UUID `json:"booking_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// Publisher is the subset of the kafka producer the sender needs.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// KafkaConversationSender posts conversation messages as CloudEvents.
type KafkaConversationSender struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// NewKafkaConversationSender creates a sender. After three consecutive publish
// failures the breaker opens and sends fail fast for ten seconds.
func NewKafkaConversationSender(publisher Publisher, logger *zap.Logger) *KafkaConversationSender {
	s := &KafkaConversationSender{publisher: publisher, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "conversation-sender",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// Send publishes msg, keyed by booking so a thread stays ordered.
func (s *KafkaConversationSender) Send(ctx context.Context, msg ConversationMessage) error {
	if strings.TrimSpace(msg.Body) == "" {
		return ErrEmptyMessage
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	event, err := kafka.NewCloudEvent(source, EventMessagePosted, msg)
	if err != nil {
		return fmt.Errorf("failed to build message event: %w", err)
	}
	event = event.WithSubject(msg.BookingID.String())

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.publisher.PublishEvent(ctx, TopicConversationMessages, event)
	})
	if err != nil {
		return fmt.Errorf("failed to send conversation message: %w", err)
	}
	return nil
}

// State reports the breaker state, for health checks.
func (s *KafkaConversationSender) State() gobreaker.State {
	return s.breaker.State()
}
