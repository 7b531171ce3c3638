package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

// BuyAccountService исполняет заказы на покупку аккаунтов.
type BuyAccountService struct {
	uow       uow.UOW
	orderRepo OrderRepository
	args      FulfillmentArgs
	l         *logrus.Entry
}

func NewBuyAccountService(u uow.UOW, args FulfillmentArgs) (*BuyAccountService, error) {
	orderRepo, err := poolRepo[OrderRepository](u, repoargs.OrderRepoName)
	if err != nil {
		return nil, err
	}
	a := args.withDefaults()
	return &BuyAccountService{
		uow:       u,
		orderRepo: orderRepo,
		args:      a,
		l: a.Logger.WithFields(logrus.Fields{
			"component": "fulfillment",
			"module":    "buy_account",
		}),
	}, nil
}

// Handle обрабатывает сообщение о заказе.
//
// Алгоритм работы:
//  1. Коротким отдельным запросом переводит заказ в PROCESSING. Терминальный заказ не трогается.
//  2. В транзакции блокирует строку заказа и повторно проверяет статус.
//  3. Списывает монеты, резервирует единицы товара, создает эскроу и завершает заказ.
//  4. Бизнес-ошибка переводит заказ в FAILED в той же транзакции. Списанное к этому моменту возвращается.
//
// Возвращает ошибку только для инфраструктурных сбоев, в этом случае сообщение нужно доставить повторно.
func (s *BuyAccountService) Handle(ctx context.Context, msg domain.BuyAccountMessage) error {
	l := s.l.WithField("orderID", msg.OrderID)

	if _, err := s.orderRepo.MarkProcessing(ctx, msg.OrderID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.logMissingOrTerminal(ctx, l, msg.OrderID)
			s.args.Outcomes.Record(domain.IntentBuyAccount, OutcomeSkipped)
			return nil
		}
		return fmt.Errorf("claiming order %d: %w", msg.OrderID, err)
	}

	var (
		ob      outbox
		skipped bool
		failure *domain.BusinessError
	)

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orders, err := txRepo[OrderRepository](tx, repoargs.OrderRepoName)
		if err != nil {
			return err
		}
		order, err := orders.FindByIDForUpdate(c, msg.OrderID)
		if err != nil {
			return fmt.Errorf("locking order %d: %w", msg.OrderID, err)
		}
		if order.IsTerminal() {
			skipped = true
			return nil
		}

		transactionID, fulfilErr := s.fulfil(c, tx, order, &ob)
		if fulfilErr != nil {
			be, ok := domain.AsBusiness(fulfilErr)
			if !ok {
				return fulfilErr
			}
			failure = be
			ob.reset()
			ob.notifyUser(order.CustomerID, "Purchase failed", be.Reason)
			if markErr := orders.MarkFailed(c, order.ID, be.Reason); markErr != nil {
				return fmt.Errorf("failing order %d: %w", order.ID, markErr)
			}
			return nil
		}

		if err = orders.MarkCompleted(c, order.ID, transactionID); err != nil {
			return fmt.Errorf("completing order %d: %w", order.ID, err)
		}
		return nil
	})
	if txErr != nil {
		return fmt.Errorf("fulfilling order %d: %w", msg.OrderID, txErr)
	}

	if skipped {
		l.Info("order already terminal, skip")
		s.args.Outcomes.Record(domain.IntentBuyAccount, OutcomeSkipped)
		return nil
	}

	ob.flush(ctx, s.args.Notifications, s.args.Email)

	if failure != nil {
		l.WithField("reason", failure.Kind).Warnf("order failed: %s", failure.Reason)
	} else {
		l.Info("order completed")
	}
	s.args.Outcomes.Record(domain.IntentBuyAccount, outcomeOf(failure))
	return nil
}

// fulfil выполняет покупку внутри транзакции tx и возвращает id эскроу-транзакции.
func (s *BuyAccountService) fulfil(
	ctx context.Context,
	tx uow.TX,
	order *domain.Order,
	ob *outbox,
) (int64, error) {
	users, err := txRepo[UserRepository](tx, repoargs.UserRepoName)
	if err != nil {
		return 0, err
	}
	catalog, err := txRepo[CatalogRepository](tx, repoargs.CatalogRepoName)
	if err != nil {
		return 0, err
	}
	stock, err := txRepo[StockRepository](tx, repoargs.StockRepoName)
	if err != nil {
		return 0, err
	}
	escrows, err := txRepo[EscrowRepository](tx, repoargs.EscrowRepoName)
	if err != nil {
		return 0, err
	}
	shops, err := txRepo[ShopRepository](tx, repoargs.ShopRepoName)
	if err != nil {
		return 0, err
	}
	configs, err := txRepo[SystemConfigRepository](tx, repoargs.SystemConfigRepoName)
	if err != nil {
		return 0, err
	}

	customer, err := users.FindByID(ctx, order.CustomerID)
	if err != nil {
		return 0, referenceNotFound(err, "Customer", order.CustomerID)
	}
	product, err := catalog.FindActiveProduct(ctx, order.ProductID)
	if err != nil {
		return 0, referenceNotFound(err, "Product", order.ProductID)
	}
	variant, err := catalog.FindActiveVariant(ctx, order.VariantID)
	if err != nil {
		return 0, referenceNotFound(err, "Variant", order.VariantID)
	}
	if variant.ProductID != product.ID {
		return 0, domain.NewBusinessError(domain.KindReferenceNotFound,
			"Variant #%d does not belong to product #%d", variant.ID, product.ID)
	}

	quantity := order.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	total := variant.Price * quantity

	allocator := NewStockAllocator(stock)
	if err = allocator.Precheck(ctx, variant.ID, quantity); err != nil {
		return 0, err
	}

	ledger := NewLedger(users)
	if err = ledger.DebitIfSufficient(ctx, customer.ID, total); err != nil {
		if domain.IsKind(err, domain.KindInsufficientBalance) {
			return 0, domain.NewBusinessError(domain.KindInsufficientBalance,
				"You don't have enough coins to complete this order.")
		}
		return 0, err
	}
	ob.notifyUser(customer.ID, "Payment authorized", fmt.Sprintf(
		"We have deducted %s coins from your balance for order #%d (%s).",
		formatCoins(total), order.ID, product.Title(),
	))

	percentage, err := NewCommissionResolver(shops, configs).Resolve(ctx, product.SellerID)
	if err != nil {
		return 0, err
	}
	split := SplitCommission(total, percentage)

	units, err := allocator.Allocate(ctx, variant.ID, quantity)
	if err != nil {
		if !domain.IsBusiness(err) {
			return 0, err
		}
		// остаток разобрали между проверкой и блокировкой, деньги возвращаются.
		if refundErr := ledger.Credit(ctx, customer.ID, total); refundErr != nil {
			return 0, refundErr
		}
		return 0, err
	}

	escrow, err := escrows.Create(ctx, repoargs.CreateEscrow{
		CustomerID:        customer.ID,
		SellerID:          product.SellerID,
		ProductID:         product.ID,
		VariantID:         variant.ID,
		Quantity:          quantity,
		Amount:            split.Amount,
		Commission:        split.Fee,
		SellerShare:       split.SellerShare,
		EscrowReleaseDate: s.args.Now().Add(s.args.EscrowHold),
	})
	if err != nil {
		return 0, fmt.Errorf("creating escrow for order %d: %w", order.ID, err)
	}

	if err = allocator.Attach(ctx, units, escrow.ID); err != nil {
		return 0, err
	}

	ob.notifyUser(customer.ID, "Purchase successful", fmt.Sprintf(
		"Your accounts are ready. You can view and activate them in My Orders (Order #%d).", order.ID,
	))
	return escrow.ID, nil
}

func (s *BuyAccountService) logMissingOrTerminal(ctx context.Context, l *logrus.Entry, orderID int64) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	switch {
	case err == nil:
		l.WithField("status", order.Status).Info("order already terminal, skip")
	case errors.Is(err, domain.ErrRecordNotFound):
		l.Warn("order not found, drop message")
	default:
		l.WithError(err).Warn("order not claimable")
	}
}
