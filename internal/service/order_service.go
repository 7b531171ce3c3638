package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

type OrderService struct {
	uow         uow.UOW
	orderRepo   OrderRepository
	catalogRepo CatalogRepository
	publisher   Publisher
}

func NewOrderService(u uow.UOW, publisher Publisher) (*OrderService, error) {
	orderRepo, err := poolRepo[OrderRepository](u, repoargs.OrderRepoName)
	if err != nil {
		return nil, err
	}
	catalogRepo, err := poolRepo[CatalogRepository](u, repoargs.CatalogRepoName)
	if err != nil {
		return nil, err
	}
	return &OrderService{
		uow:         u,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		publisher:   publisher,
	}, nil
}

// SubmitOrderArgs Quantity <= 0 трактуется как одна единица, HTTP слой отклоняет явный 0 раньше.
type SubmitOrderArgs struct {
	RequestID  string
	CustomerID int64
	ProductID  int64
	VariantID  int64
	Quantity   int64
}

// Submit создает заказ в статусе PENDING и публикует сообщение на его исполнение.
//
// Если заказ с таким RequestID уже существует, возвращается *domain.DuplicateOrderError. Для
// дубликата, еще не взятого в работу, сообщение публикуется повторно: предыдущая публикация
// могла не дойти до брокера.
func (o *OrderService) Submit(ctx context.Context, args SubmitOrderArgs) (*domain.Order, error) {
	variant, err := o.catalogRepo.FindActiveVariant(ctx, args.VariantID)
	if err != nil {
		return nil, referenceNotFound(err, "Variant", args.VariantID)
	}
	if variant.ProductID != args.ProductID {
		return nil, domain.NewBusinessError(domain.KindReferenceNotFound,
			"Variant #%d does not belong to product #%d", variant.ID, args.ProductID)
	}

	quantity := args.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	order, createErr := o.orderRepo.CreatePending(ctx, repoargs.CreateOrder{
		RequestID:  args.RequestID,
		CustomerID: args.CustomerID,
		ProductID:  args.ProductID,
		VariantID:  args.VariantID,
		Quantity:   quantity,
		// цена на момент заявки справочная, списывается цена на момент исполнения.
		TotalPrice: variant.Price * quantity,
	})
	if createErr != nil {
		if !errors.Is(createErr, domain.ErrDuplicateKey) {
			return nil, fmt.Errorf("creating order: %w", createErr)
		}
		existing, findErr := o.orderRepo.FindByRequestID(ctx, args.RequestID)
		if findErr != nil {
			return nil, fmt.Errorf("creating order: %w", findErr)
		}
		if existing.Status == domain.OrderStatusPending && existing.CustomerID == args.CustomerID {
			if pubErr := o.publish(ctx, existing.ID); pubErr != nil {
				return nil, pubErr
			}
		}
		return nil, domain.NewDuplicateOrderError(existing)
	}

	if err = o.publish(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// Get возвращает заказ по id или domain.ErrRecordNotFound.
func (o *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := o.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return order, nil
}

func (o *OrderService) publish(ctx context.Context, orderID int64) error {
	payload, err := json.Marshal(domain.BuyAccountMessage{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("encoding order %d message: %w", orderID, err)
	}
	key := strconv.FormatInt(orderID, 10)
	if err = o.publisher.Publish(ctx, domain.TopicBuyAccount, key, payload); err != nil {
		return fmt.Errorf("publishing order %d: %w", orderID, err)
	}
	return nil
}
