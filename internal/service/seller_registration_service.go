package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

// SellerRegistrationService активирует аккаунт продавца за фиксированный взнос.
type SellerRegistrationService struct {
	uow  uow.UOW
	args FulfillmentArgs
	l    *logrus.Entry
}

func NewSellerRegistrationService(u uow.UOW, args FulfillmentArgs) *SellerRegistrationService {
	a := args.withDefaults()
	return &SellerRegistrationService{
		uow:  u,
		args: a,
		l: a.Logger.WithFields(logrus.Fields{
			"component": "fulfillment",
			"module":    "seller_registration",
		}),
	}
}

func (s *SellerRegistrationService) Handle(ctx context.Context, msg domain.SellerRegistrationMessage) error {
	l := s.l.WithField("userID", msg.UserID)

	var ob outbox
	bizErr, txErr := runTerminal(ctx, s.uow, func(c context.Context, tx uow.TX) error {
		return s.process(c, tx, msg, &ob, l)
	})
	if txErr != nil {
		return fmt.Errorf("registering seller %d: %w", msg.UserID, txErr)
	}

	ob.flush(ctx, s.args.Notifications, s.args.Email)
	logOutcome(l, bizErr, "seller activated")
	s.args.Outcomes.Record(domain.IntentSellerRegistration, outcomeOf(bizErr))
	return nil
}

func (s *SellerRegistrationService) process(
	ctx context.Context,
	tx uow.TX,
	msg domain.SellerRegistrationMessage,
	ob *outbox,
	l *logrus.Entry,
) error {
	fresh, err := rememberIntent(ctx, tx, domain.IntentSellerRegistration, msg.UserID, msg.DedupeKey)
	if err != nil {
		return err
	}
	if !fresh {
		return errDuplicateIntent
	}

	users, err := txRepo[UserRepository](tx, repoargs.UserRepoName)
	if err != nil {
		return err
	}
	user, err := users.FindByID(ctx, msg.UserID)
	if err != nil {
		return referenceNotFound(err, "User", msg.UserID)
	}

	fee := s.args.RegistrationFee
	rows, err := users.ActivateSellerIfNotActive(ctx, user.ID, fee)
	if err != nil {
		return fmt.Errorf("activating seller %d: %w", user.ID, err)
	}

	if rows == 0 {
		current, findErr := users.FindByID(ctx, user.ID)
		if findErr != nil {
			return fmt.Errorf("reading user %d: %w", user.ID, findErr)
		}
		if current.ShopStatus == domain.ShopStatusActive {
			// повторная регистрация: взнос не списывается, магазин обновляется.
			l.Info("seller already active, refresh shop")
			_, upsertErr := s.upsertShop(ctx, tx, current, msg)
			return upsertErr
		}
		ob.notifyUser(user.ID, "Seller registration failed", fmt.Sprintf(
			"Insufficient balance. A fee of %s coins is required to activate your seller account.",
			formatCoins(fee),
		))
		return domain.NewBusinessError(domain.KindInsufficientBalance,
			"registration fee %d exceeds balance of user %d", fee, user.ID)
	}

	if err = users.PromoteToSeller(ctx, user.ID); err != nil {
		return fmt.Errorf("promoting user %d: %w", user.ID, err)
	}

	shop, err := s.upsertShop(ctx, tx, user, msg)
	if err != nil {
		return err
	}

	ob.notifyUser(user.ID, "Seller account activated", fmt.Sprintf(
		"Your seller registration has been completed successfully. Your shop is now active. "+
			"A fee of %s coins has been deducted from your account.",
		formatCoins(fee),
	))

	html, err := mail.SellerActivated(user.DisplayName(), shop.Name, fee)
	if err != nil {
		l.WithError(err).Warn("render seller email")
		return nil
	}
	ob.email(user.Email, mail.SubjectSellerActivated, html)
	return nil
}

func (s *SellerRegistrationService) upsertShop(
	ctx context.Context,
	tx uow.TX,
	user *domain.User,
	msg domain.SellerRegistrationMessage,
) (*domain.Shop, error) {
	shops, err := txRepo[ShopRepository](tx, repoargs.ShopRepoName)
	if err != nil {
		return nil, err
	}
	configs, err := txRepo[SystemConfigRepository](tx, repoargs.SystemConfigRepoName)
	if err != nil {
		return nil, err
	}

	commission, err := NewCommissionResolver(shops, configs).DefaultPercentage(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(msg.ShopName)
	provided := name != ""
	if !provided {
		name = defaultShopName(user)
	}

	var description *string
	if msg.Description != nil {
		d := strings.TrimSpace(*msg.Description)
		description = &d
	}

	shop, err := shops.Upsert(ctx, repoargs.UpsertShop{
		UserID:            user.ID,
		Name:              name,
		Description:       description,
		NameProvided:      provided,
		DefaultCommission: commission,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting shop of user %d: %w", user.ID, err)
	}
	return shop, nil
}

func defaultShopName(user *domain.User) string {
	if n := strings.TrimSpace(user.FullName); n != "" {
		return n + "'s Shop"
	}
	return "My Shop"
}
