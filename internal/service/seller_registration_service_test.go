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

type SellerRegistrationServiceTestSuite struct {
	fulfillmentSuite
	service *SellerRegistrationService
	user    domain.User
	msg     domain.SellerRegistrationMessage
}

func TestSellerRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(SellerRegistrationServiceTestSuite))
}

func (s *SellerRegistrationServiceTestSuite) SetupTest() {
	s.fulfillmentSuite.SetupTest()
	s.service = NewSellerRegistrationService(s.mockUOW, s.args)
	s.user = domain.User{
		ID:         8,
		Email:      "new-seller@example.com",
		FullName:   "Jane Doe",
		Role:       domain.RoleCustomer,
		Coins:      300000,
		ShopStatus: domain.ShopStatusInactive,
	}
	s.msg = domain.SellerRegistrationMessage{UserID: 8, ShopName: "  Jane Games ", DedupeKey: "sr-1"}
}

func (s *SellerRegistrationServiceTestSuite) expectFreshWithUser() {
	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentSellerRegistration, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&s.user, nil)
}

func (s *SellerRegistrationServiceTestSuite) expectShopUpsert(wantName string, wantProvided bool) {
	s.configRepo.EXPECT().GetValue(gomock.Any(), domain.ConfigKeyDefaultCommission).Return("5.00", nil)
	s.shopRepo.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpsertShop) (*domain.Shop, error) {
			s.Equal(s.user.ID, args.UserID)
			s.Equal(wantName, args.Name)
			s.Equal(wantProvided, args.NameProvided)
			s.True(decimal.RequireFromString("5").Equal(args.DefaultCommission))
			return &domain.Shop{ID: 1, UserID: args.UserID, Name: args.Name}, nil
		})
}

func (s *SellerRegistrationServiceTestSuite) TestHandleActivates() {
	s.expectFreshWithUser()
	s.userRepo.EXPECT().ActivateSellerIfNotActive(gomock.Any(), s.user.ID, DefaultRegistrationFee).Return(int64(1), nil)
	s.userRepo.EXPECT().PromoteToSeller(gomock.Any(), s.user.ID).Return(nil)
	s.expectShopUpsert("Jane Games", true)
	s.notifications.EXPECT().NotifyUser(gomock.Any(), s.user.ID, "Seller account activated",
		"Your seller registration has been completed successfully. Your shop is now active. "+
			"A fee of 200,000 coins has been deducted from your account.")
	s.email.EXPECT().SendAsync(gomock.Any(), s.user.Email, mail.SubjectSellerActivated, gomock.Any())

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *SellerRegistrationServiceTestSuite) TestHandleDefaultShopName() {
	s.msg.ShopName = ""

	s.expectFreshWithUser()
	s.userRepo.EXPECT().ActivateSellerIfNotActive(gomock.Any(), s.user.ID, DefaultRegistrationFee).Return(int64(1), nil)
	s.userRepo.EXPECT().PromoteToSeller(gomock.Any(), s.user.ID).Return(nil)
	s.expectShopUpsert("Jane Doe's Shop", false)
	s.expectNotify(s.user.ID, "Seller account activated")
	s.email.EXPECT().SendAsync(gomock.Any(), s.user.Email, mail.SubjectSellerActivated, gomock.Any())

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *SellerRegistrationServiceTestSuite) TestHandleAlreadyActiveIsIdempotent() {
	active := s.user
	active.ShopStatus = domain.ShopStatusActive

	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentSellerRegistration, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	gomock.InOrder(
		s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&s.user, nil),
		s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&active, nil),
	)
	s.userRepo.EXPECT().ActivateSellerIfNotActive(gomock.Any(), s.user.ID, DefaultRegistrationFee).Return(int64(0), nil)
	s.expectShopUpsert("Jane Games", true)

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *SellerRegistrationServiceTestSuite) TestHandleInsufficientBalance() {
	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentSellerRegistration, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&s.user, nil).Times(2)
	s.userRepo.EXPECT().ActivateSellerIfNotActive(gomock.Any(), s.user.ID, DefaultRegistrationFee).Return(int64(0), nil)
	s.notifications.EXPECT().NotifyUser(gomock.Any(), s.user.ID, "Seller registration failed",
		"Insufficient balance. A fee of 200,000 coins is required to activate your seller account.")

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}

func (s *SellerRegistrationServiceTestSuite) TestHandleCustomFee() {
	s.args.RegistrationFee = 1000
	s.service = NewSellerRegistrationService(s.mockUOW, s.args)

	s.intentRepo.EXPECT().Remember(gomock.Any(), domain.IntentSellerRegistration, s.msg.UserID, s.msg.DedupeKey).Return(true, nil)
	s.userRepo.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&s.user, nil).Times(2)
	s.userRepo.EXPECT().ActivateSellerIfNotActive(gomock.Any(), s.user.ID, int64(1000)).Return(int64(0), nil)
	s.expectNotify(s.user.ID, "Seller registration failed")

	s.Require().NoError(s.service.Handle(s.T().Context(), s.msg))
}
