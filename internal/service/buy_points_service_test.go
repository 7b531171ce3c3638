package service

import (
	"context"
	"testing"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BuyPointsServiceTestSuite struct {
	fulfillmentSuite
	service *BuyPointsService
	user    domain.User
	msg     domain.BuyPointsMessage
}

func TestBuyPointsServiceSuite(t *testing.T) {
	suite.Run(t, new(BuyPointsServiceTestSuite))
}

func (s *BuyPointsServiceTestSuite) SetupTest() {
	s.fulfillmentSuite.SetupTest()
	s.service = NewBuyPointsService(s.mockUOW, s.args)
	s.user = domain.User{ID: 5, Email: "seller@example.com", FullName: "Seller", Coins: 10000}
	s.msg = domain.BuyPointsMessage{
		UserID:      5,
		PointsToBuy: 500,
		CostCoins:   ptr(int64(500)),
		OTP:         "123456",
		DedupeKey:   "bp-1",
	}
}

func (s *BuyPointsServiceTestSuite) expectFreshWithUser() {
	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentBuyPoints, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&s.user, nil)
}

func (s *BuyPointsServiceTestSuite) TestHandleCompletes() {
	commission := decimal.RequireFromString("4.00")

	s.expectFreshWithUser()
	s.otpRepo.EXPECT().ConsumeLatestValid(gomock.Any(), s.user.ID, "123456", s.now).Return(true, nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.user.ID, int64(500)).Return(int64(1), nil)
	s.shopRepo.EXPECT().AddPoints(gomock.Any(), s.user.ID, int64(500)).Return(int64(100500), nil)
	s.purchaseRepo.EXPECT().
		Create(gomock.Any(), repoargs.CreatePointPurchase{
			UserID:       s.user.ID,
			PointsBought: 500,
			CoinsSpent:   500,
			PointsBefore: 100000,
			PointsAfter:  100500,
		}).
		Return(nil)
	s.shopRepo.EXPECT().
		FindActiveByUserID(gomock.Any(), s.user.ID).
		Return(&domain.Shop{UserID: s.user.ID, Points: 100500, Level: 1, Commission: &commission}, nil)

	s.notifications.EXPECT().
		NotifyUser(gomock.Any(), s.user.ID, "Points purchased successfully",
			"You have bought 500 points. Your new total is 100,500.")
	s.email.EXPECT().SendAsync(gomock.Any(), s.user.Email, mail.SubjectPointsPurchased, gomock.Any())

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleMismatchedCostUsesServerPrice() {
	s.msg.CostCoins = ptr(int64(1))

	s.expectFreshWithUser()
	s.otpRepo.EXPECT().ConsumeLatestValid(gomock.Any(), s.user.ID, "123456", s.now).Return(true, nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.user.ID, int64(500)).Return(int64(0), nil)
	s.expectNotify(s.user.ID, "Buy points failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleDuplicateDelivery() {
	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentBuyPoints, s.msg.UserID, s.msg.DedupeKey).Return(false, nil)

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleInvalidOTP() {
	s.expectFreshWithUser()
	s.otpRepo.EXPECT().ConsumeLatestValid(gomock.Any(), s.user.ID, "123456", s.now).Return(false, nil)
	s.notifications.EXPECT().
		NotifyUser(gomock.Any(), s.user.ID, "Buy points failed", "The verification code is invalid or has expired.")

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleMissingShopRefunds() {
	s.expectFreshWithUser()
	s.otpRepo.EXPECT().ConsumeLatestValid(gomock.Any(), s.user.ID, "123456", s.now).Return(true, nil)
	s.userRepo.EXPECT().DebitIfSufficient(gomock.Any(), s.user.ID, int64(500)).Return(int64(1), nil)
	s.shopRepo.EXPECT().AddPoints(gomock.Any(), s.user.ID, int64(500)).Return(int64(0), domain.ErrRecordNotFound)
	s.userRepo.EXPECT().Credit(gomock.Any(), s.user.ID, int64(500)).Return(nil)
	s.expectNotify(s.user.ID, "Buy points failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleUnknownUserIsDropped() {
	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentBuyPoints, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(nil, domain.ErrRecordNotFound)

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *BuyPointsServiceTestSuite) TestHandleRecordsOutcome() {
	rec := newOutcomeRecorder()
	s.args.Outcomes = rec
	s.service = NewBuyPointsService(s.mockUOW, s.args)

	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentBuyPoints, s.msg.UserID, s.msg.DedupeKey).Return(false, nil)
	s.Require().NoError(s.service.Handle(context.Background(), s.msg))
	s.Equal([]string{OutcomeDuplicate}, rec.outcomes[domain.IntentBuyPoints])
}

// recorder простой учет исходов для проверок.
type recorder struct {
	outcomes map[domain.IntentType][]string
}

func newOutcomeRecorder() *recorder {
	return &recorder{outcomes: make(map[domain.IntentType][]string)}
}

func (r *recorder) Record(intent domain.IntentType, outcome string) {
	r.outcomes[intent] = append(r.outcomes[intent], outcome)
}
