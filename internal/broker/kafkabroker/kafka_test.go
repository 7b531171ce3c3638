package kafkabroker

import (
	"context"
	"testing"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDelivery(sub *subscription) *delivery {
	return &delivery{
		sub: sub,
		msg: kafka.Message{
			Topic:     "buy.points.requests",
			Partition: 1,
			Offset:    7,
			Key:       []byte("user-1"),
			Value:     []byte(`{"userId":1}`),
		},
		attempt: 1,
	}
}

func TestDeliveryMessage(t *testing.T) {
	d := newDelivery(&subscription{topic: "buy.points.requests"})

	assert.Equal(t, broker.Message{
		ID:      "buy.points.requests:1:7",
		Topic:   "buy.points.requests",
		Key:     "user-1",
		Payload: []byte(`{"userId":1}`),
	}, d.Message())
	assert.Equal(t, 1, d.Attempt())
}

func TestNakRedeliversSameMessageAfterDelay(t *testing.T) {
	sub := &subscription{topic: "buy.points.requests"}
	d := newDelivery(sub)
	delay := 50 * time.Millisecond

	require.NoError(t, d.Nak(t.Context(), delay))

	start := time.Now()
	next, err := sub.Next(t.Context())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), delay-10*time.Millisecond)
	assert.Equal(t, 2, next.Attempt())
	assert.Equal(t, d.Message(), next.Message())
	assert.Nil(t, sub.retry, "retry is handed out only once")
}

func TestNakTwiceIncrementsAttempt(t *testing.T) {
	sub := &subscription{topic: "buy.points.requests"}
	d := newDelivery(sub)

	require.NoError(t, d.Nak(t.Context(), 0))
	second, err := sub.Next(t.Context())
	require.NoError(t, err)
	require.NoError(t, second.Nak(t.Context(), 0))
	third, err := sub.Next(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 3, third.Attempt())
}

func TestNextKeepsRetryWhenCancelled(t *testing.T) {
	sub := &subscription{topic: "buy.points.requests"}
	require.NoError(t, newDelivery(sub).Nak(t.Context(), time.Hour))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := sub.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, sub.retry, "pending retry must survive a cancelled wait")
}

func TestSubscribeAfterClose(t *testing.T) {
	b := New(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Subscribe(t.Context(), "buy.points.requests", "fulfillment")
	require.ErrorIs(t, err, broker.ErrClosed)
}
