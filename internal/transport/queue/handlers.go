package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/broker"
	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Handler обрабатывает тело сообщения. Ошибка, обернутая в broker.ErrMalformedMessage, означает
// что повторная доставка бессмысленна.
type Handler func(ctx context.Context, payload []byte) error

// MessageHandler сервис, исполняющий намерение одного типа.
type MessageHandler[T any] interface {
	Handle(ctx context.Context, msg T) error
}

var messageValidator = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// JSON декодирует тело сообщения в T, проверяет теги validate и передает сообщение в h.
func JSON[T any](h MessageHandler[T]) Handler {
	return func(ctx context.Context, payload []byte) error {
		var msg T
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: decode: %s", broker.ErrMalformedMessage, err.Error())
		}
		if err := messageValidator.Struct(msg); err != nil {
			return fmt.Errorf("%w: %s", broker.ErrMalformedMessage, err.Error())
		}
		return h.Handle(ctx, msg)
	}
}

// Services обработчики намерений, см. service.AppServices.
type Services struct {
	BuyAccount         MessageHandler[domain.BuyAccountMessage]
	BuyPoints          MessageHandler[domain.BuyPointsMessage]
	SellerRegistration MessageHandler[domain.SellerRegistrationMessage]
	Withdrawal         MessageHandler[domain.WithdrawalCreateMessage]
}

// Workers кол-во воркеров по очередям, 0 - значение процессора.
type Workers struct {
	BuyAccount         uint
	BuyPoints          uint
	SellerRegistration uint
	Withdrawal         uint
}

// Routes таблица очередей намерений.
func Routes(svs Services, workers Workers) []Route {
	return []Route{
		{
			Intent:  domain.IntentBuyAccount,
			Topic:   domain.TopicBuyAccount,
			Handler: JSON[domain.BuyAccountMessage](svs.BuyAccount),
			Workers: workers.BuyAccount,
		},
		{
			Intent:  domain.IntentBuyPoints,
			Topic:   domain.TopicBuyPoints,
			Handler: JSON[domain.BuyPointsMessage](svs.BuyPoints),
			Workers: workers.BuyPoints,
		},
		{
			Intent:  domain.IntentSellerRegistration,
			Topic:   domain.TopicSellerRegistration,
			Handler: JSON[domain.SellerRegistrationMessage](svs.SellerRegistration),
			Workers: workers.SellerRegistration,
		},
		{
			Intent:  domain.IntentWithdrawalCreate,
			Topic:   domain.TopicWithdrawalCreate,
			Handler: JSON[domain.WithdrawalCreateMessage](svs.Withdrawal),
			Workers: workers.Withdrawal,
		},
	}
}
