// Package jetstream реализация broker.Broker поверх NATS JetStream.
package jetstream

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	pkgerrors "github.com/pkg/errors"
)

const (
	DefaultStreamName = "MMO_FULFILLMENT"
	keyHeader         = "Mmo-Key"
	fetchWait         = 2 * time.Second
)

type Config struct {
	URL        string
	StreamName string
	AckWait    time.Duration
	MaxDeliver int
}

type Broker struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	cfg    Config
}

// Connect подключается к NATS и создает (или обновляет) стрим со всеми очередями сервиса.
func Connect(ctx context.Context, cfg Config) (*Broker, error) {
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("mmo-fulfillment"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "nats connect")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, pkgerrors.Wrap(err, "jetstream init")
	}

	subjects := broker.Topics()
	for _, t := range broker.Topics() {
		subjects = append(subjects, broker.DeadLetterTopic(t))
	}
	if _, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: subjects,
		Storage:  jetstream.FileStorage,
	}); err != nil {
		nc.Close()
		return nil, pkgerrors.Wrapf(err, "create stream %s", cfg.StreamName)
	}

	return &Broker{nc: nc, js: js, stream: cfg.StreamName, cfg: cfg}, nil
}

func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := nats.NewMsg(topic)
	msg.Data = payload
	msg.Header.Set(keyHeader, key)
	if _, err := b.js.PublishMsg(ctx, msg); err != nil {
		return pkgerrors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

// Subscribe создает durable pull-консьюмера. Подписки с одинаковой группой читают одного консьюмера
// и делят между собой сообщения.
func (b *Broker) Subscribe(ctx context.Context, topic, group string) (broker.Subscription, error) {
	cons, err := b.js.CreateOrUpdateConsumer(ctx, b.stream, jetstream.ConsumerConfig{
		Durable:       durableName(group, topic),
		FilterSubject: topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.cfg.AckWait,
		MaxDeliver:    b.cfg.MaxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "create consumer for %s", topic)
	}
	return &subscription{cons: cons, topic: topic}, nil
}

func (b *Broker) Close() error {
	return b.nc.Drain() //nolint:wrapcheck
}

// durableName имена консьюмеров не допускают точек.
func durableName(group, topic string) string {
	return group + "_" + strings.ReplaceAll(topic, ".", "_")
}

type subscription struct {
	cons  jetstream.Consumer
	topic string
}

func (s *subscription) Next(ctx context.Context) (broker.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck
		}
		batch, err := s.cons.Fetch(1, jetstream.FetchMaxWait(fetchWait))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "fetch from %s", s.topic)
		}
		if msg, ok := <-batch.Messages(); ok {
			return &delivery{msg: msg, topic: s.topic}, nil
		}
		if bErr := batch.Error(); bErr != nil && !isIdle(bErr) {
			return nil, pkgerrors.Wrapf(bErr, "fetch from %s", s.topic)
		}
	}
}

func (s *subscription) Close() error {
	return nil
}

func isIdle(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, jetstream.ErrNoMessages)
}

type delivery struct {
	msg   jetstream.Msg
	topic string
}

func (d *delivery) Message() broker.Message {
	m := broker.Message{Topic: d.topic, Payload: d.msg.Data()}
	if h := d.msg.Headers(); h != nil {
		m.Key = h.Get(keyHeader)
	}
	if meta, err := d.msg.Metadata(); err == nil {
		m.ID = d.topic + ":" + strconv.FormatUint(meta.Sequence.Stream, 10)
	}
	return m
}

func (d *delivery) Attempt() int {
	meta, err := d.msg.Metadata()
	if err != nil {
		return 1
	}
	return int(meta.NumDelivered) //nolint:gosec
}

func (d *delivery) Ack(ctx context.Context) error {
	return pkgerrors.Wrap(d.msg.DoubleAck(ctx), "ack")
}

func (d *delivery) Nak(_ context.Context, delay time.Duration) error {
	return pkgerrors.Wrap(d.msg.NakWithDelay(delay), "nak")
}
