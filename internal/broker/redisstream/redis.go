// Package redisstream реализация broker.Broker поверх Redis Streams и consumer groups.
//
// Неподтвержденное сообщение остается в pending списке группы и забирается через XAUTOCLAIM,
// когда простаивает дольше ClaimIdle. Поэтому задержка Nak не точнее ClaimIdle.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	fieldKey     = "key"
	fieldPayload = "payload"
	readBlock    = 2 * time.Second
)

type Config struct {
	Addr      string
	ClaimIdle time.Duration
}

type Broker struct {
	client    *redis.Client
	claimIdle time.Duration
	seq       atomic.Int64
	host      string
}

func Connect(ctx context.Context, cfg Config) (*Broker, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, "redis ping %s", cfg.Addr)
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "fulfillment"
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	return &Broker{client: client, claimIdle: claimIdle, host: host}, nil
}

func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{
			fieldKey:     key,
			fieldPayload: payload,
		},
	}).Err()
	return pkgerrors.Wrapf(err, "xadd to %s", topic)
}

func (b *Broker) Subscribe(ctx context.Context, topic, group string) (broker.Subscription, error) {
	err := b.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, pkgerrors.Wrapf(err, "create group %s on %s", group, topic)
	}
	return &subscription{
		client:    b.client,
		topic:     topic,
		group:     group,
		consumer:  fmt.Sprintf("%s-%d-%d", b.host, os.Getpid(), b.seq.Add(1)),
		claimIdle: b.claimIdle,
	}, nil
}

func (b *Broker) Close() error {
	return pkgerrors.Wrap(b.client.Close(), "close redis")
}

type subscription struct {
	client    *redis.Client
	topic     string
	group     string
	consumer  string
	claimIdle time.Duration
	lastClaim time.Time
}

func (s *subscription) Next(ctx context.Context) (broker.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck
		}

		if time.Since(s.lastClaim) >= s.claimIdle/2 {
			d, err := s.claim(ctx)
			if err != nil {
				return nil, err
			}
			if d != nil {
				return d, nil
			}
		}

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.topic, ">"},
			Count:    1,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err() //nolint:wrapcheck
			}
			return nil, pkgerrors.Wrapf(err, "xreadgroup %s", s.topic)
		}
		for _, stream := range streams {
			if len(stream.Messages) > 0 {
				return s.delivery(stream.Messages[0], 1), nil
			}
		}
	}
}

// claim забирает одно зависшее сообщение группы. Возвращает nil, если таких нет.
func (s *subscription) claim(ctx context.Context) (broker.Delivery, error) {
	s.lastClaim = time.Now()
	msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.topic,
		Group:    s.group,
		Consumer: s.consumer,
		MinIdle:  s.claimIdle,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil //nolint:nilnil
		}
		return nil, pkgerrors.Wrapf(err, "xautoclaim %s", s.topic)
	}
	if len(msgs) == 0 {
		return nil, nil //nolint:nilnil
	}

	attempt := 2
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.topic,
		Group:  s.group,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()
	if err == nil && len(pending) == 1 {
		attempt = int(pending[0].RetryCount)
	}
	// сразу заберем следующий, если он есть.
	s.lastClaim = time.Time{}
	return s.delivery(msgs[0], attempt), nil
}

func (s *subscription) delivery(m redis.XMessage, attempt int) *delivery {
	msg := broker.Message{ID: m.ID, Topic: s.topic}
	if v, ok := m.Values[fieldKey].(string); ok {
		msg.Key = v
	}
	if v, ok := m.Values[fieldPayload].(string); ok {
		msg.Payload = []byte(v)
	}
	return &delivery{sub: s, id: m.ID, msg: msg, attempt: attempt}
}

func (s *subscription) Close() error {
	return nil
}

type delivery struct {
	sub     *subscription
	id      string
	msg     broker.Message
	attempt int
}

func (d *delivery) Message() broker.Message {
	return d.msg
}

func (d *delivery) Attempt() int {
	return d.attempt
}

func (d *delivery) Ack(ctx context.Context) error {
	return pkgerrors.Wrap(d.sub.client.XAck(ctx, d.sub.topic, d.sub.group, d.id).Err(), "xack")
}

// Nak оставляет сообщение в pending: его заберет XAUTOCLAIM после простоя claimIdle.
func (d *delivery) Nak(context.Context, time.Duration) error {
	return nil
}
