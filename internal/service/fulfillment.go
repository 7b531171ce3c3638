package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
)

const (
	DefaultEscrowHold      = 72 * time.Hour
	DefaultRegistrationFee = int64(200000)
)

func formatCoins(v int64) string {
	return mail.Number(v)
}

// FulfillmentArgs общие зависимости обработчиков намерений.
type FulfillmentArgs struct {
	Notifications   NotificationSink
	Email           EmailSink
	Outcomes        OutcomeRecorder
	Logger          *logrus.Logger
	Now             func() time.Time
	EscrowHold      time.Duration
	RegistrationFee int64
}

func (a *FulfillmentArgs) withDefaults() FulfillmentArgs {
	res := *a
	if res.Now == nil {
		res.Now = time.Now
	}
	if res.EscrowHold <= 0 {
		res.EscrowHold = DefaultEscrowHold
	}
	if res.RegistrationFee <= 0 {
		res.RegistrationFee = DefaultRegistrationFee
	}
	if res.Outcomes == nil {
		res.Outcomes = noopRecorder{}
	}
	if res.Logger == nil {
		res.Logger = logrus.New()
	}
	return res
}

type noopRecorder struct{}

func (noopRecorder) Record(domain.IntentType, string) {}

// outbox копит уведомления и письма внутри транзакции. Отправляются они только после фиксации.
type outbox struct {
	notifications []domain.Notification
	emails        []domain.EmailMessage
}

func (o *outbox) notifyUser(userID int64, title, body string) {
	o.notifications = append(o.notifications, domain.Notification{UserID: userID, Title: title, Body: body})
}

func (o *outbox) notifyRole(role domain.UserRole, title, body string) {
	o.notifications = append(o.notifications, domain.Notification{Role: role, Title: title, Body: body})
}

func (o *outbox) email(to, subject, html string) {
	if to == "" {
		return
	}
	o.emails = append(o.emails, domain.EmailMessage{To: to, Subject: subject, HTML: html})
}

func (o *outbox) reset() {
	o.notifications = o.notifications[:0]
	o.emails = o.emails[:0]
}

func (o *outbox) flush(ctx context.Context, notifications NotificationSink, email EmailSink) {
	for _, n := range o.notifications {
		if n.Role != "" {
			notifications.NotifyRole(ctx, n.Role, n.Title, n.Body)
			continue
		}
		notifications.NotifyUser(ctx, n.UserID, n.Title, n.Body)
	}
	if email == nil {
		return
	}
	for _, e := range o.emails {
		email.SendAsync(ctx, e.To, e.Subject, e.HTML)
	}
}

// runTerminal выполняет fn в транзакции. Бизнес-ошибка fn не откатывает транзакцию: все, что fn успела
// записать (использованный OTP, компенсации, запись о дедупликации), фиксируется, а ошибка возвращается
// первым значением. Инфраструктурная ошибка откатывает транзакцию и возвращается вторым значением.
func runTerminal(
	ctx context.Context,
	u uow.UOW,
	fn func(ctx context.Context, tx uow.TX) error,
) (*domain.BusinessError, error) {
	var bizErr *domain.BusinessError
	txErr := u.Do(ctx, func(c context.Context, tx uow.TX) error {
		bizErr = nil
		err := fn(c, tx)
		if be, ok := domain.AsBusiness(err); ok {
			bizErr = be
			return nil
		}
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return bizErr, nil
}

// rememberIntent помечает ключ дедупликации обработанным. Ключ действует в рамках намерения и пользователя,
// пустой ключ не дедуплицируется.
func rememberIntent(ctx context.Context, tx uow.TX, intent domain.IntentType, userID int64, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	repo, err := txRepo[IntentRepository](tx, repoargs.IntentRepoName)
	if err != nil {
		return false, err
	}
	fresh, err := repo.Remember(ctx, intent, userID, key)
	if err != nil {
		return false, fmt.Errorf("remembering intent %s: %w", key, err)
	}
	return fresh, nil
}

// errDuplicateIntent внутренний маркер повторной доставки уже обработанного намерения.
var errDuplicateIntent = domain.NewBusinessError(domain.KindAlreadyProcessed, "intent already processed")

func txRepo[T any](tx uow.TX, name repoargs.RepositoryName) (T, error) {
	return uow.GetAs[T](tx, uow.RepositoryName(name)) //nolint:wrapcheck
}

func poolRepo[T any](u uow.UOW, name repoargs.RepositoryName) (T, error) {
	return uow.GetRepositoryAs[T](u, uow.RepositoryName(name)) //nolint:wrapcheck
}

// referenceNotFound превращает domain.ErrRecordNotFound в бизнес-ошибку, остальные ошибки не меняет.
func referenceNotFound(err error, what string, id int64) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewBusinessError(domain.KindReferenceNotFound, "%s #%d not found", what, id)
	}
	return err
}

func outcomeOf(bizErr *domain.BusinessError) string {
	switch {
	case bizErr == nil:
		return OutcomeCompleted
	case bizErr.Kind == domain.KindAlreadyProcessed:
		return OutcomeDuplicate
	default:
		return OutcomeFailed
	}
}
