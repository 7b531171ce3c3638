package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

// BuyPointsService покупка очков магазина за монеты. Курс 1 очко = 1 монета.
type BuyPointsService struct {
	uow  uow.UOW
	args FulfillmentArgs
	l    *logrus.Entry
}

func NewBuyPointsService(u uow.UOW, args FulfillmentArgs) *BuyPointsService {
	a := args.withDefaults()
	return &BuyPointsService{
		uow:  u,
		args: a,
		l: a.Logger.WithFields(logrus.Fields{
			"component": "fulfillment",
			"module":    "buy_points",
		}),
	}
}

const buyPointsFailedTitle = "Buy points failed"

func (s *BuyPointsService) Handle(ctx context.Context, msg domain.BuyPointsMessage) error {
	l := s.l.WithFields(logrus.Fields{"userID": msg.UserID, "points": msg.PointsToBuy})

	var ob outbox
	bizErr, txErr := runTerminal(ctx, s.uow, func(c context.Context, tx uow.TX) error {
		return s.process(c, tx, msg, &ob, l)
	})
	if txErr != nil {
		return fmt.Errorf("buying points for user %d: %w", msg.UserID, txErr)
	}

	ob.flush(ctx, s.args.Notifications, s.args.Email)
	logOutcome(l, bizErr, "points purchased")
	s.args.Outcomes.Record(domain.IntentBuyPoints, outcomeOf(bizErr))
	return nil
}

func (s *BuyPointsService) process(
	ctx context.Context,
	tx uow.TX,
	msg domain.BuyPointsMessage,
	ob *outbox,
	l *logrus.Entry,
) error {
	fresh, err := rememberIntent(ctx, tx, domain.IntentBuyPoints, msg.UserID, msg.DedupeKey)
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
	otps, err := txRepo[OTPRepository](tx, repoargs.OTPRepoName)
	if err != nil {
		return err
	}
	shops, err := txRepo[ShopRepository](tx, repoargs.ShopRepoName)
	if err != nil {
		return err
	}
	purchases, err := txRepo[PointPurchaseRepository](tx, repoargs.PointPurchaseRepoName)
	if err != nil {
		return err
	}

	user, err := users.FindByID(ctx, msg.UserID)
	if err != nil {
		return referenceNotFound(err, "User", msg.UserID)
	}

	if err = NewOTPGuard(otps, s.args.Now).ValidateAndConsume(ctx, user.ID, msg.OTP); err != nil {
		if be, ok := domain.AsBusiness(err); ok {
			ob.notifyUser(user.ID, buyPointsFailedTitle, be.Reason)
		}
		return err
	}

	cost := msg.PointsToBuy
	if msg.CostCoins != nil && *msg.CostCoins != cost {
		l.WithField("costCoins", *msg.CostCoins).Info("cost in message differs from server price, use server price")
	}

	ledger := NewLedger(users)
	if err = ledger.DebitIfSufficient(ctx, user.ID, cost); err != nil {
		if domain.IsKind(err, domain.KindInsufficientBalance) {
			ob.notifyUser(user.ID, buyPointsFailedTitle, "Insufficient Coins to purchase the required points.")
		}
		return err
	}

	total, err := shops.AddPoints(ctx, user.ID, msg.PointsToBuy)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("adding points to shop of user %d: %w", user.ID, err)
		}
		if refundErr := ledger.Credit(ctx, user.ID, cost); refundErr != nil {
			return refundErr
		}
		ob.notifyUser(user.ID, buyPointsFailedTitle, "Shop not found. Your coins have been refunded.")
		return domain.NewBusinessError(domain.KindReferenceNotFound, "shop of user %d not found", user.ID)
	}

	if err = purchases.Create(ctx, repoargs.CreatePointPurchase{
		UserID:       user.ID,
		PointsBought: msg.PointsToBuy,
		CoinsSpent:   cost,
		PointsBefore: total - msg.PointsToBuy,
		PointsAfter:  total,
	}); err != nil {
		return fmt.Errorf("recording point purchase of user %d: %w", user.ID, err)
	}

	// уровень и комиссию пересчитывает триггер, поэтому магазин перечитывается.
	shop, err := shops.FindActiveByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("reading shop of user %d: %w", user.ID, err)
	}

	ob.notifyUser(user.ID, "Points purchased successfully", fmt.Sprintf(
		"You have bought %s points. Your new total is %s.",
		formatCoins(msg.PointsToBuy), formatCoins(total),
	))

	commission := FallbackCommissionPercentage
	if shop.Commission != nil {
		commission = *shop.Commission
	}
	html, err := mail.PointsPurchased(user.DisplayName(), msg.PointsToBuy, shop.Level, total, commission.StringFixed(2))
	if err != nil {
		l.WithError(err).Warn("render points email")
		return nil
	}
	ob.email(user.Email, mail.SubjectPointsPurchased, html)
	return nil
}

// logOutcome общий для обработчиков намерений лог исхода.
func logOutcome(l *logrus.Entry, bizErr *domain.BusinessError, success string) {
	switch outcomeOf(bizErr) {
	case OutcomeCompleted:
		l.Info(success)
	case OutcomeDuplicate:
		l.Info("duplicate delivery, skip")
	default:
		l.WithField("reason", bizErr.Kind).Warnf("intent rejected: %s", bizErr.Reason)
	}
}
