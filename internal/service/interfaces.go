package service

import (
	"context"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type OrderRepository interface {
	CreatePending(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindByRequestID(ctx context.Context, requestID string) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	MarkProcessing(ctx context.Context, id int64) (*domain.Order, error)
	MarkCompleted(ctx context.Context, id, transactionID int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	DebitIfSufficient(ctx context.Context, userID, amount int64) (int64, error)
	Credit(ctx context.Context, userID, amount int64) error
	ActivateSellerIfNotActive(ctx context.Context, userID, fee int64) (int64, error)
	PromoteToSeller(ctx context.Context, userID int64) error
}

type CatalogRepository interface {
	FindActiveProduct(ctx context.Context, id int64) (*domain.Product, error)
	FindActiveVariant(ctx context.Context, id int64) (*domain.ProductVariant, error)
}

type StockRepository interface {
	CountAvailable(ctx context.Context, variantID int64) (int64, error)
	LockAvailable(ctx context.Context, variantID, limit int64) ([]domain.InventoryUnit, error)
	MarkSold(ctx context.Context, unitIDs []int64, transactionID int64) (int64, error)
}

type EscrowRepository interface {
	Create(ctx context.Context, args repoargs.CreateEscrow) (*domain.EscrowTransaction, error)
	DueForRelease(ctx context.Context, now time.Time, limit uint) ([]int64, error)
	LockDue(ctx context.Context, id int64, now time.Time) (*domain.EscrowTransaction, error)
	MarkReleased(ctx context.Context, id int64, now time.Time) error
}

type OTPRepository interface {
	ConsumeLatestValid(ctx context.Context, userID int64, code string, now time.Time) (bool, error)
}

type ShopRepository interface {
	FindActiveByUserID(ctx context.Context, userID int64) (*domain.Shop, error)
	AddPoints(ctx context.Context, userID, points int64) (int64, error)
	Upsert(ctx context.Context, args repoargs.UpsertShop) (*domain.Shop, error)
}

type PointPurchaseRepository interface {
	Create(ctx context.Context, args repoargs.CreatePointPurchase) error
}

type WithdrawalRepository interface {
	Create(ctx context.Context, args repoargs.CreateWithdrawal) (*domain.Withdrawal, error)
}

type BankInfoRepository interface {
	FindActiveByID(ctx context.Context, id int64) (*domain.BankInfo, error)
}

type ComplaintRepository interface {
	CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error)
	HasOpenForTransaction(ctx context.Context, transactionID int64) (bool, error)
}

type SystemConfigRepository interface {
	GetValue(ctx context.Context, key string) (string, error)
}

type IntentRepository interface {
	Remember(ctx context.Context, intent domain.IntentType, userID int64, dedupeKey string) (bool, error)
}

// NotificationSink доставка уведомлений. Вызывается только после фиксации транзакции.
type NotificationSink interface {
	NotifyUser(ctx context.Context, userID int64, title, body string)
	NotifyRole(ctx context.Context, role domain.UserRole, title, body string)
}

// EmailSink отправка писем по принципу best effort.
type EmailSink interface {
	SendAsync(ctx context.Context, to, subject, html string)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// OutcomeRecorder учитывает исходы обработки намерений, например в метриках.
type OutcomeRecorder interface {
	Record(intent domain.IntentType, outcome string)
}
