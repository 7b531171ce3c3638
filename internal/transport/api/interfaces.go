package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/service"
)

type OrderServicer interface {
	Submit(ctx context.Context, args service.SubmitOrderArgs) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

type IntentServicer interface {
	BuyPoints(ctx context.Context, msg domain.BuyPointsMessage) error
	RegisterSeller(ctx context.Context, msg domain.SellerRegistrationMessage) error
	CreateWithdrawal(ctx context.Context, msg domain.WithdrawalCreateMessage) error
}

// HealthChecker проверка доступности базы, реализуется *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
