package service

import (
	"context"
	"io"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/internal/service/mocks"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	uowmocks "github.com/fsdevblog/mmo-fulfillment/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// fulfillmentSuite общая обвязка для сервисов, работающих через uow. Транзакция мока
// отдает репозитории по имени, Do сразу вызывает переданную функцию.
type fulfillmentSuite struct {
	suite.Suite
	mockCtrl *gomock.Controller
	mockUOW  *uowmocks.MockUOW
	mockTX   *uowmocks.MockTX

	orderRepo      *mocks.MockOrderRepository
	userRepo       *mocks.MockUserRepository
	catalogRepo    *mocks.MockCatalogRepository
	stockRepo      *mocks.MockStockRepository
	escrowRepo     *mocks.MockEscrowRepository
	otpRepo        *mocks.MockOTPRepository
	shopRepo       *mocks.MockShopRepository
	purchaseRepo   *mocks.MockPointPurchaseRepository
	withdrawalRepo *mocks.MockWithdrawalRepository
	bankRepo       *mocks.MockBankInfoRepository
	complaintRepo  *mocks.MockComplaintRepository
	configRepo     *mocks.MockSystemConfigRepository
	intentRepo     *mocks.MockIntentRepository

	notifications *mocks.MockNotificationSink
	email         *mocks.MockEmailSink

	now  time.Time
	args FulfillmentArgs
}

func (s *fulfillmentSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)

	s.orderRepo = mocks.NewMockOrderRepository(s.mockCtrl)
	s.userRepo = mocks.NewMockUserRepository(s.mockCtrl)
	s.catalogRepo = mocks.NewMockCatalogRepository(s.mockCtrl)
	s.stockRepo = mocks.NewMockStockRepository(s.mockCtrl)
	s.escrowRepo = mocks.NewMockEscrowRepository(s.mockCtrl)
	s.otpRepo = mocks.NewMockOTPRepository(s.mockCtrl)
	s.shopRepo = mocks.NewMockShopRepository(s.mockCtrl)
	s.purchaseRepo = mocks.NewMockPointPurchaseRepository(s.mockCtrl)
	s.withdrawalRepo = mocks.NewMockWithdrawalRepository(s.mockCtrl)
	s.bankRepo = mocks.NewMockBankInfoRepository(s.mockCtrl)
	s.complaintRepo = mocks.NewMockComplaintRepository(s.mockCtrl)
	s.configRepo = mocks.NewMockSystemConfigRepository(s.mockCtrl)
	s.intentRepo = mocks.NewMockIntentRepository(s.mockCtrl)
	s.notifications = mocks.NewMockNotificationSink(s.mockCtrl)
	s.email = mocks.NewMockEmailSink(s.mockCtrl)

	repos := map[repoargs.RepositoryName]uow.Repository{
		repoargs.OrderRepoName:         s.orderRepo,
		repoargs.UserRepoName:          s.userRepo,
		repoargs.CatalogRepoName:       s.catalogRepo,
		repoargs.StockRepoName:         s.stockRepo,
		repoargs.EscrowRepoName:        s.escrowRepo,
		repoargs.OTPRepoName:           s.otpRepo,
		repoargs.ShopRepoName:          s.shopRepo,
		repoargs.PointPurchaseRepoName: s.purchaseRepo,
		repoargs.WithdrawalRepoName:    s.withdrawalRepo,
		repoargs.BankInfoRepoName:      s.bankRepo,
		repoargs.ComplaintRepoName:     s.complaintRepo,
		repoargs.SystemConfigRepoName:  s.configRepo,
		repoargs.IntentRepoName:        s.intentRepo,
	}
	lookup := func(name uow.RepositoryName) (uow.Repository, error) {
		repo, ok := repos[repoargs.RepositoryName(name)]
		if !ok {
			return nil, uow.ErrRepositoryNotRegistered
		}
		return repo, nil
	}

	s.mockTX.EXPECT().Get(gomock.Any()).DoAndReturn(lookup).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(gomock.Any()).DoAndReturn(lookup).AnyTimes()
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).AnyTimes()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.args = FulfillmentArgs{
		Notifications: s.notifications,
		Email:         s.email,
		Logger:        logger,
		Now:           func() time.Time { return s.now },
	}
}

func (s *fulfillmentSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *fulfillmentSuite) expectNotify(userID int64, title string) *gomock.Call {
	return s.notifications.EXPECT().NotifyUser(gomock.Any(), userID, title, gomock.Any())
}

func ptr[T any](v T) *T {
	return &v
}
