package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
)

// IntentService публикует пользовательские намерения в очереди. Исполнение асинхронное,
// результат приходит пользователю уведомлением.
type IntentService struct {
	publisher Publisher
}

func NewIntentService(publisher Publisher) *IntentService {
	return &IntentService{publisher: publisher}
}

func (s *IntentService) BuyPoints(ctx context.Context, msg domain.BuyPointsMessage) error {
	return s.publish(ctx, domain.TopicBuyPoints, msg.UserID, msg)
}

func (s *IntentService) RegisterSeller(ctx context.Context, msg domain.SellerRegistrationMessage) error {
	return s.publish(ctx, domain.TopicSellerRegistration, msg.UserID, msg)
}

func (s *IntentService) CreateWithdrawal(ctx context.Context, msg domain.WithdrawalCreateMessage) error {
	return s.publish(ctx, domain.TopicWithdrawalCreate, msg.SellerID, msg)
}

// publish ключом сообщения служит id пользователя: намерения одного пользователя попадают в одну партицию.
func (s *IntentService) publish(ctx context.Context, topic string, userID int64, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", topic, err)
	}
	if err = s.publisher.Publish(ctx, topic, strconv.FormatInt(userID, 10), payload); err != nil {
		return fmt.Errorf("publishing %s message: %w", topic, err)
	}
	return nil
}
