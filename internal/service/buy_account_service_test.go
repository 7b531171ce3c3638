package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BuyAccountServiceTestSuite struct {
	fulfillmentSuite
	service *BuyAccountService

	order    domain.Order
	customer domain.User
	product  domain.Product
	variant  domain.ProductVariant
}

func TestBuyAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(BuyAccountServiceTestSuite))
}

func (s *BuyAccountServiceTestSuite) SetupTest() {
	s.fulfillmentSuite.SetupTest()

	service, err := NewBuyAccountService(s.mockUOW, s.args)
	s.Require().NoError(err)
	s.service = service

	s.order = domain.Order{
		ID:         42,
		RequestID:  "req-42",
		CustomerID: 7,
		ProductID:  3,
		VariantID:  9,
		Quantity:   2,
		Status:     domain.OrderStatusProcessing,
	}
	s.customer = domain.User{ID: 7, Email: "buyer@example.com", FullName: "Buyer", Coins: 1000}
	s.product = domain.Product{ID: 3, SellerID: 11, Name: "Game account"}
	s.variant = domain.ProductVariant{ID: 9, ProductID: 3, Price: 100}
}

// expectLoaded мокает захват заказа и чтение справочных данных.
func (s *BuyAccountServiceTestSuite) expectLoaded() {
	claimed := s.order
	s.orderRepo.EXPECT().MarkProcessing(gomock.Any(), s.order.ID).Return(&claimed, nil)
	locked := s.order
	s.orderRepo.EXPECT().FindByIDForUpdate(gomock.Any(), s.order.ID).Return(&locked, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.customer.ID).Return(&s.customer, nil)
	s.catalogRepo.EXPECT().FindActiveProduct(gomock.Any(), s.product.ID).Return(&s.product, nil)
	s.catalogRepo.EXPECT().FindActiveVariant(gomock.Any(), s.variant.ID).Return(&s.variant, nil)
}

func (s *BuyAccountServiceTestSuite) expectDefaultCommission() {
	s.shopRepo.EXPECT().FindActiveByUserID(gomock.Any(), s.product.SellerID).Return(&domain.Shop{UserID: 11}, nil)
	s.configRepo.EXPECT().GetValue(gomock.Any(), domain.ConfigKeyDefaultCommission).Return("5.00", nil)
}

func (s *BuyAccountServiceTestSuite) TestHandleCompletes() {
	var escrowID int64 = 500
	units := []domain.InventoryUnit{{ID: 1, VariantID: 9}, {ID: 2, VariantID: 9}}

	s.expectLoaded()
	s.expectDefaultCommission()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(5), nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.customer.ID, int64(200)).Return(int64(1), nil)
	s.stockRepo.EXPECT().LockAvailable(gomock.Any(), s.variant.ID, int64(2)).Return(units, nil)
	s.escrowRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateEscrow) (*domain.EscrowTransaction, error) {
			s.Equal(int64(200), args.Amount)
			s.Equal(int64(10), args.Commission)
			s.Equal(int64(190), args.SellerShare)
			s.Equal(s.product.SellerID, args.SellerID)
			s.Equal(s.now.Add(DefaultEscrowHold), args.EscrowReleaseDate)
			return &domain.EscrowTransaction{ID: escrowID}, nil
		})
	s.stockRepo.EXPECT().MarkSold(gomock.Any(), []int64{1, 2}, escrowID).Return(int64(2), nil)
	s.orderRepo.EXPECT().MarkCompleted(gomock.Any(), s.order.ID, escrowID).Return(nil)

	gomock.InOrder(
		s.expectNotify(s.customer.ID, "Payment authorized"),
		s.expectNotify(s.customer.ID, "Purchase successful"),
	)

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleInsufficientBalance() {
	s.expectLoaded()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(5), nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.customer.ID, int64(200)).Return(int64(0), nil)
	s.orderRepo.EXPECT().
		MarkFailed(gomock.Any(), s.order.ID, "You don't have enough coins to complete this order.").
		Return(nil)
	s.expectNotify(s.customer.ID, "Purchase failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleOutOfStockBeforeDebit() {
	s.expectLoaded()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(1), nil)
	s.orderRepo.EXPECT().MarkFailed(gomock.Any(), s.order.ID, "Out of stock. Available: 1").Return(nil)
	s.expectNotify(s.customer.ID, "Purchase failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleStockTakenAfterDebitRefunds() {
	s.expectLoaded()
	s.expectDefaultCommission()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(2), nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.customer.ID, int64(200)).Return(int64(1), nil)
	s.stockRepo.EXPECT().
		LockAvailable(gomock.Any(), s.variant.ID, int64(2)).
		Return([]domain.InventoryUnit{{ID: 1}}, nil)
	s.userRepo.EXPECT().Credit(gomock.Any(), s.customer.ID, int64(200)).Return(nil)
	s.orderRepo.EXPECT().MarkFailed(gomock.Any(), s.order.ID, "Out of stock. Available: 1").Return(nil)

	// уведомление о списании не отправляется: деньги уже возвращены.
	s.expectNotify(s.customer.ID, "Purchase failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleMissingProduct() {
	claimed := s.order
	s.orderRepo.EXPECT().MarkProcessing(gomock.Any(), s.order.ID).Return(&claimed, nil)
	s.orderRepo.EXPECT().FindByIDForUpdate(gomock.Any(), s.order.ID).Return(&claimed, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.customer.ID).Return(&s.customer, nil)
	s.catalogRepo.EXPECT().FindActiveProduct(gomock.Any(), s.product.ID).Return(nil, domain.ErrRecordNotFound)
	s.orderRepo.EXPECT().MarkFailed(gomock.Any(), s.order.ID, "Product #3 not found").Return(nil)
	s.expectNotify(s.customer.ID, "Purchase failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleRedeliveryOfTerminalOrder() {
	completed := s.order
	completed.Status = domain.OrderStatusCompleted

	s.orderRepo.EXPECT().MarkProcessing(gomock.Any(), s.order.ID).Return(nil, domain.ErrRecordNotFound)
	s.orderRepo.EXPECT().FindByID(gomock.Any(), s.order.ID).Return(&completed, nil)

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleOrderFinishedByConcurrentDelivery() {
	claimed := s.order
	done := s.order
	done.Status = domain.OrderStatusFailed

	s.orderRepo.EXPECT().MarkProcessing(gomock.Any(), s.order.ID).Return(&claimed, nil)
	s.orderRepo.EXPECT().FindByIDForUpdate(gomock.Any(), s.order.ID).Return(&done, nil)

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}

func (s *BuyAccountServiceTestSuite) TestHandleInfrastructureErrorIsRetried() {
	dbErr := errors.New("connection reset")

	s.expectLoaded()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(5), nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.customer.ID, int64(200)).Return(int64(0), dbErr)

	err := s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID})
	s.Require().ErrorIs(err, dbErr)
	s.False(domain.IsBusiness(err))
}

func (s *BuyAccountServiceTestSuite) TestHandleUsesShopCommission() {
	var escrowID int64 = 501
	shopPct := decimal.RequireFromString("3.50")
	s.order.Quantity = 0 // по умолчанию покупается одна единица.

	s.expectLoaded()
	s.stockRepo.EXPECT().CountAvailable(gomock.Any(), s.variant.ID).Return(int64(1), nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.customer.ID, int64(100)).Return(int64(1), nil)
	s.shopRepo.EXPECT().
		FindActiveByUserID(gomock.Any(), s.product.SellerID).
		Return(&domain.Shop{UserID: 11, Commission: &shopPct}, nil)
	s.stockRepo.EXPECT().
		LockAvailable(gomock.Any(), s.variant.ID, int64(1)).
		Return([]domain.InventoryUnit{{ID: 5}}, nil)
	s.escrowRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateEscrow) (*domain.EscrowTransaction, error) {
			// 3.5% от 100 = 3.5, округляется от нуля до 4.
			s.Equal(int64(4), args.Commission)
			s.Equal(int64(96), args.SellerShare)
			return &domain.EscrowTransaction{ID: escrowID}, nil
		})
	s.stockRepo.EXPECT().MarkSold(gomock.Any(), []int64{5}, escrowID).Return(int64(1), nil)
	s.orderRepo.EXPECT().MarkCompleted(gomock.Any(), s.order.ID, escrowID).Return(nil)
	s.notifications.EXPECT().NotifyUser(gomock.Any(), s.customer.ID, gomock.Any(), gomock.Any()).Times(2)

	s.Require().NoError(s.service.Handle(s.T().Context(), domain.BuyAccountMessage{OrderID: s.order.ID}))
}
