// Package broker описывает транспорт очередей, общий для NATS JetStream, Kafka и Redis Streams.
// Доставка at-least-once: сообщение подтверждается только после успешной обработки.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
)

//go:generate mockgen -source=broker.go -destination=mocks/mocks.go -package=mocks

var (
	// ErrMalformedMessage сообщение не может быть обработано ни при какой повторной доставке.
	ErrMalformedMessage = errors.New("malformed message")
	ErrClosed           = errors.New("broker closed")
)

// Message полученное сообщение.
type Message struct {
	ID      string
	Topic   string
	Key     string
	Payload []byte
}

type Delivery interface {
	Message() Message
	// Attempt номер доставки, начиная с 1.
	Attempt() int
	Ack(ctx context.Context) error
	// Nak возвращает сообщение в очередь для повторной доставки не раньше чем через delay.
	Nak(ctx context.Context, delay time.Duration) error
}

type Subscription interface {
	// Next блокируется до получения сообщения или отмены контекста.
	Next(ctx context.Context) (Delivery, error)
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Broker interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	// Subscribe создает подписку в группе group. Подписки одной группы делят сообщения между собой.
	Subscribe(ctx context.Context, topic, group string) (Subscription, error)
	Close() error
}

// Topics все очереди входящих намерений.
func Topics() []string {
	return []string{
		domain.TopicBuyAccount,
		domain.TopicBuyPoints,
		domain.TopicSellerRegistration,
		domain.TopicWithdrawalCreate,
		domain.TopicEmailOutbound,
	}
}

// DeadLetterTopic очередь для сообщений, исчерпавших попытки доставки.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}
