package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
)

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	calls  int
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestKafkaConversationSender_Send(t *testing.T) {
	pub := &recordingPublisher{}
	sender := NewKafkaConversationSender(pub, zap.NewNop())
	bookingID := uuid.New()

	err := sender.Send(context.Background(), ConversationMessage{
		BookingID:   bookingID,
		SenderID:    uuid.New(),
		RecipientID: uuid.New(),
		Body:        "Hi, Milo is shy with other dogs.",
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)

	evt := pub.events[0]
	assert.Equal(t, EventMessagePosted, evt.Type)
	assert.Equal(t, bookingID.String(), evt.Subject)

	var got ConversationMessage
	require.NoError(t, evt.ParseData(&got))
	assert.Equal(t, "Hi, Milo is shy with other dogs.", got.Body)
	assert.False(t, got.SentAt.IsZero())
}

func TestKafkaConversationSender_EmptyBody(t *testing.T) {
	pub := &recordingPublisher{}
	sender := NewKafkaConversationSender(pub, zap.NewNop())

	err := sender.Send(context.Background(), ConversationMessage{BookingID: uuid.New(), Body: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, pub.calls)
}

func TestKafkaConversationSender_BreakerOpens(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	sender := NewKafkaConversationSender(pub, zap.NewNop())
	msg := ConversationMessage{BookingID: uuid.New(), Body: "hello"}

	for i := 0; i < 3; i++ {
		assert.Error(t, sender.Send(context.Background(), msg))
	}
	assert.Equal(t, gobreaker.StateOpen, sender.State())

	err := sender.Send(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, pub.calls)
}
