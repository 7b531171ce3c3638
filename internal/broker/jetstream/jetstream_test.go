package jetstream

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/nats-io/nuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurableName(t *testing.T) {
	tests := []struct {
		group string
		topic string
		want  string
	}{
		{group: "fulfillment", topic: "buy.account.requests", want: "fulfillment_buy_account_requests"},
		{group: "fulfillment", topic: "withdrawal.requests.dlq", want: "fulfillment_withdrawal_requests_dlq"},
		{group: "g", topic: "plain", want: "g_plain"},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got := durableName(tt.group, tt.topic)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, ".")
		})
	}
}

// TestRoundTrip требует запущенный NATS с JetStream (адрес в TEST_NATS_URL) без стримов на темах сервиса:
// тест создает собственный стрим и удаляет его после себя.
func TestRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL is not set")
	}
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	stream := "MMO_TEST_" + nuid.Next()
	b, err := Connect(ctx, Config{URL: url, StreamName: stream, AckWait: 5 * time.Second, MaxDeliver: 5})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = b.js.DeleteStream(context.Background(), stream)
		_ = b.Close()
	})

	topic := broker.Topics()[0]
	require.NoError(t, b.Publish(ctx, topic, "user-1", []byte(`{"orderId":1}`)))

	sub, err := b.Subscribe(ctx, topic, "test")
	require.NoError(t, err)

	first, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt())
	assert.Equal(t, "user-1", first.Message().Key)
	assert.Equal(t, []byte(`{"orderId":1}`), first.Message().Payload)
	assert.Equal(t, topic+":1", first.Message().ID)

	require.NoError(t, first.Nak(ctx, 100*time.Millisecond))

	second, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt())
	assert.Equal(t, first.Message(), second.Message())
	require.NoError(t, second.Ack(ctx))
}
