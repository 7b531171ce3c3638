// Package kafkabroker реализация broker.Broker поверх Kafka (segmentio/kafka-go).
//
// Kafka не умеет возвращать отдельное сообщение в очередь, поэтому Nak повторяет сообщение
// на месте: следующий Next вернет его же после паузы, смещение не фиксируется до Ack.
package kafkabroker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	pkgerrors "github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
}

type Broker struct {
	cfg    Config
	writer *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

func New(cfg Config) *Broker {
	return &Broker{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{}, // сообщения одного ключа попадают в одну партицию.
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	return pkgerrors.Wrapf(err, "publish to %s", topic)
}

func (b *Broker) Subscribe(_ context.Context, topic, group string) (broker.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, broker.ErrClosed
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.cfg.Brokers,
		GroupID:     group,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	b.readers = append(b.readers, reader)
	return &subscription{reader: reader, topic: topic}, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return pkgerrors.Wrap(firstErr, "close kafka")
}

type subscription struct {
	reader  *kafka.Reader
	topic   string
	retry   *delivery
	retryAt time.Time
}

func (s *subscription) Next(ctx context.Context) (broker.Delivery, error) {
	if s.retry != nil {
		if wait := time.Until(s.retryAt); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err() //nolint:wrapcheck
			case <-time.After(wait):
			}
		}
		d := s.retry
		s.retry = nil
		return d, nil
	}

	m, err := s.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err() //nolint:wrapcheck
		}
		return nil, pkgerrors.Wrapf(err, "fetch from %s", s.topic)
	}
	return &delivery{sub: s, msg: m, attempt: 1}, nil
}

func (s *subscription) Close() error {
	return nil
}

type delivery struct {
	sub     *subscription
	msg     kafka.Message
	attempt int
}

func (d *delivery) Message() broker.Message {
	return broker.Message{
		ID:      d.msg.Topic + ":" + strconv.Itoa(d.msg.Partition) + ":" + strconv.FormatInt(d.msg.Offset, 10),
		Topic:   d.msg.Topic,
		Key:     string(d.msg.Key),
		Payload: d.msg.Value,
	}
}

func (d *delivery) Attempt() int {
	return d.attempt
}

func (d *delivery) Ack(ctx context.Context) error {
	return pkgerrors.Wrap(d.sub.reader.CommitMessages(ctx, d.msg), "commit offset")
}

func (d *delivery) Nak(_ context.Context, delay time.Duration) error {
	d.sub.retry = &delivery{sub: d.sub, msg: d.msg, attempt: d.attempt + 1}
	d.sub.retryAt = time.Now().Add(delay)
	return nil
}
