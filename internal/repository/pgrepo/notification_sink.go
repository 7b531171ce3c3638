package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

// NotificationSink пишет уведомления в таблицу notifications вне транзакции обработчика.
// Ошибки только логируются: уведомления не должны влиять на исход основной операции.
type NotificationSink struct {
	conn uow.DBTX
	l    *logrus.Entry
}

func NewNotificationSink(conn uow.DBTX, l *logrus.Logger) *NotificationSink {
	return &NotificationSink{
		conn: conn,
		l: l.WithFields(logrus.Fields{
			"component": "notification",
			"module":    "sink",
		}),
	}
}

func (n *NotificationSink) NotifyUser(ctx context.Context, userID int64, title, body string) {
	_, err := n.conn.Exec(ctx,
		`INSERT INTO notifications (user_id, title, message) VALUES ($1, $2, $3)`,
		userID, title, body,
	)
	if err != nil {
		n.l.WithError(err).WithField("userID", userID).Warn("notify user")
	}
}

// NotifyRole рассылает уведомление всем пользователям роли.
func (n *NotificationSink) NotifyRole(ctx context.Context, role domain.UserRole, title, body string) {
	_, err := n.conn.Exec(ctx,
		`INSERT INTO notifications (user_id, title, message) SELECT id, $2, $3 FROM users WHERE role = $1`,
		role, title, body,
	)
	if err != nil {
		n.l.WithError(err).WithField("role", role).Warn("notify role")
	}
}
