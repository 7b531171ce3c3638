// Package mail готовит письма пользователям и отправляет их в очередь исходящей почты.
// Доставкой писем занимается отдельный сервис.
package mail

import (
	"context"
	"encoding/json"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Sink публикует письма по принципу best effort: ошибка публикации только логируется.
type Sink struct {
	publisher Publisher
	l         *logrus.Entry
}

func NewSink(publisher Publisher, l *logrus.Logger) *Sink {
	return &Sink{
		publisher: publisher,
		l: l.WithFields(logrus.Fields{
			"component": "mail",
			"module":    "sink",
		}),
	}
}

func (s *Sink) SendAsync(ctx context.Context, to, subject, html string) {
	if to == "" {
		return
	}
	payload, err := json.Marshal(domain.EmailMessage{To: to, Subject: subject, HTML: html})
	if err != nil {
		s.l.WithError(err).Warn("encode email")
		return
	}
	if err = s.publisher.Publish(ctx, domain.TopicEmailOutbound, to, payload); err != nil {
		s.l.WithError(err).WithField("subject", subject).Warn("publish email")
	}
}
