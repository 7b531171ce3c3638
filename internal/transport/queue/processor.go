// Package queue разбирает входящие очереди намерений и передает сообщения в сервисный слой.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAckDeadline        = 30 * time.Second
	defaultMaxDeliveries      = 5
	defaultWorkers       uint = 4
	defaultSettleTimeout      = 5 * time.Second
	defaultReceivePause       = time.Second
	maxRetryDelay             = 10 * time.Second
)

// Observer учитывает исход каждой доставки.
type Observer interface {
	ObserveDelivery(intent, outcome string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveDelivery(string, string, time.Duration) {}

// Route связывает очередь с обработчиком.
type Route struct {
	Intent  domain.IntentType
	Topic   string
	Handler Handler
	// Workers кол-во параллельных подписок на очередь, 0 - значение процессора.
	Workers uint
}

// Processor читает очереди пулом воркеров. Каждый воркер держит свою подписку в общей группе,
// так что брокер распределяет сообщения между ними.
type Processor struct {
	broker        broker.Broker
	group         string
	routes        []Route
	observer      Observer
	l             *logrus.Entry
	ackDeadline   time.Duration
	maxDeliveries int
	workers       uint
	receivePause  time.Duration
}

// New создает процессор, читающий очереди в группе потребителей group.
func New(b broker.Broker, group string, l *logrus.Logger) *Processor {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "queue",
		"module":    "processor",
	})

	return &Processor{
		broker:        b,
		group:         group,
		observer:      noopObserver{},
		l:             loggerEntry,
		ackDeadline:   defaultAckDeadline,
		maxDeliveries: defaultMaxDeliveries,
		workers:       defaultWorkers,
		receivePause:  defaultReceivePause,
	}
}

// Handle добавляет очередь к обработке.
func (p *Processor) Handle(routes ...Route) *Processor {
	p.routes = append(p.routes, routes...)
	return p
}

// SetAckDeadline устанавливает предельное время обработки одного сообщения.
func (p *Processor) SetAckDeadline(d time.Duration) *Processor {
	p.ackDeadline = d
	return p
}

// SetMaxDeliveries устанавливает кол-во доставок, после которого сообщение уходит в очередь недоставленных.
func (p *Processor) SetMaxDeliveries(n int) *Processor {
	p.maxDeliveries = n
	return p
}

// SetWorkers устанавливает кол-во воркеров на очередь по умолчанию.
func (p *Processor) SetWorkers(workers uint) *Processor {
	p.workers = workers
	return p
}

func (p *Processor) SetObserver(o Observer) *Processor {
	p.observer = o
	return p
}

// Run подписывается на все очереди и обрабатывает сообщения до отмены контекста.
//
// Исход обработки сообщения:
//  1. Обработчик завершился без ошибки, в том числе с бизнес-отказом: сообщение подтверждается.
//  2. Сообщение не разобрать: подтверждается с записью в лог, повтор ничего не изменит.
//  3. Ошибка инфраструктуры: сообщение возвращается в очередь с нарастающей задержкой. После
//     maxDeliveries попыток оно перекладывается в очередь <topic>.dlq и подтверждается.
func (p *Processor) Run(ctx context.Context) error {
	p.l.WithFields(logrus.Fields{
		"group":         p.group,
		"routes":        len(p.routes),
		"ackDeadline":   p.ackDeadline,
		"maxDeliveries": p.maxDeliveries,
	}).Info("Starting")

	var subs []broker.Subscription
	defer func() {
		for _, sub := range subs {
			if err := sub.Close(); err != nil {
				p.l.WithError(err).Warn("close subscription")
			}
		}
	}()

	type task struct {
		route    Route
		workerID uint
		sub      broker.Subscription
	}
	var tasks []task

	// подписки создаются до запуска воркеров, чтоб ошибка подписки не оставляла запущенных горутин.
	for _, route := range p.routes {
		workers := route.Workers
		if workers == 0 {
			workers = p.workers
		}
		for i := range workers {
			sub, err := p.broker.Subscribe(ctx, route.Topic, p.group)
			if err != nil {
				return fmt.Errorf("subscribe to %s: %w", route.Topic, err)
			}
			subs = append(subs, sub)
			tasks = append(tasks, task{route: route, workerID: i + 1, sub: sub})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			p.worker(gctx, t.route, t.workerID, t.sub)
			return nil
		})
	}

	err := g.Wait()
	p.l.Info("Got stop signal, exiting...")
	return err //nolint:wrapcheck
}

func (p *Processor) worker(ctx context.Context, route Route, workerID uint, sub broker.Subscription) {
	l := p.l.WithFields(logrus.Fields{"topic": route.Topic, "worker": workerID})

	for {
		d, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, broker.ErrClosed) {
				return
			}
			l.WithError(err).Error("receive message")
			// пауза чтоб не крутить цикл при недоступном брокере.
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.receivePause):
			}
			continue
		}
		p.dispatch(ctx, route, d)
	}
}

// dispatch обрабатывает одну доставку и возвращает ее исход.
func (p *Processor) dispatch(ctx context.Context, route Route, d broker.Delivery) string {
	start := time.Now()
	msg := d.Message()
	l := p.l.WithFields(logrus.Fields{
		"topic":     route.Topic,
		"messageID": msg.ID,
		"key":       msg.Key,
		"attempt":   d.Attempt(),
	})

	// остановка сервиса не прерывает начатую обработку, ее ограничивает только ackDeadline.
	handleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.ackDeadline)
	handleErr := route.Handler(handleCtx, msg.Payload)
	cancel()

	outcome := p.settle(ctx, l, route, d, handleErr)
	p.observer.ObserveDelivery(string(route.Intent), outcome, time.Since(start))
	return outcome
}

func (p *Processor) settle(
	ctx context.Context,
	l *logrus.Entry,
	route Route,
	d broker.Delivery,
	handleErr error,
) string {
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSettleTimeout)
	defer cancel()

	switch {
	case handleErr == nil:
		p.ack(settleCtx, l, d)
		return metrics.DeliveryAck
	case errors.Is(handleErr, broker.ErrMalformedMessage):
		l.WithError(handleErr).Error("malformed message dropped")
		p.ack(settleCtx, l, d)
		return metrics.DeliveryMalformed
	case d.Attempt() >= p.maxDeliveries:
		msg := d.Message()
		if err := p.broker.Publish(settleCtx, broker.DeadLetterTopic(route.Topic), msg.Key, msg.Payload); err != nil {
			l.WithError(err).Error("publish to dead letter queue")
			p.nak(settleCtx, l, d)
			return metrics.DeliveryRetry
		}
		l.WithError(handleErr).Error("delivery attempts exhausted, message moved to dead letter queue")
		p.ack(settleCtx, l, d)
		return metrics.DeliveryDeadLetter
	default:
		l.WithError(handleErr).Warn("handle message, will retry")
		p.nak(settleCtx, l, d)
		return metrics.DeliveryRetry
	}
}

func (p *Processor) ack(ctx context.Context, l *logrus.Entry, d broker.Delivery) {
	if err := d.Ack(ctx); err != nil {
		// сообщение придет повторно, обработчики идемпотентны.
		l.WithError(err).Warn("ack message")
	}
}

func (p *Processor) nak(ctx context.Context, l *logrus.Entry, d broker.Delivery) {
	if err := d.Nak(ctx, retryDelay(d.Attempt())); err != nil {
		l.WithError(err).Warn("nak message")
	}
}

// retryDelay экспоненциальная задержка 1s, 2s, 4s, 8s, не более maxRetryDelay.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		return maxRetryDelay
	}
	return min(time.Second<<(attempt-1), maxRetryDelay)
}
