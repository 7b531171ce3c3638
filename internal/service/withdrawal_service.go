package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/mail"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/sirupsen/logrus"
)

// WithdrawalService создает заявки продавцов на вывод средств. Сумма списывается сразу,
// заявка остается в статусе Pending до решения администратора.
type WithdrawalService struct {
	uow  uow.UOW
	args FulfillmentArgs
	l    *logrus.Entry
}

func NewWithdrawalService(u uow.UOW, args FulfillmentArgs) *WithdrawalService {
	a := args.withDefaults()
	return &WithdrawalService{
		uow:  u,
		args: a,
		l: a.Logger.WithFields(logrus.Fields{
			"component": "fulfillment",
			"module":    "withdrawal",
		}),
	}
}

func (s *WithdrawalService) Handle(ctx context.Context, msg domain.WithdrawalCreateMessage) error {
	l := s.l.WithFields(logrus.Fields{"sellerID": msg.SellerID, "amount": msg.Amount})

	var ob outbox
	bizErr, txErr := runTerminal(ctx, s.uow, func(c context.Context, tx uow.TX) error {
		return s.process(c, tx, msg, &ob)
	})
	if txErr != nil {
		return fmt.Errorf("creating withdrawal for seller %d: %w", msg.SellerID, txErr)
	}

	ob.flush(ctx, s.args.Notifications, s.args.Email)
	logOutcome(l, bizErr, "withdrawal created")
	s.args.Outcomes.Record(domain.IntentWithdrawalCreate, outcomeOf(bizErr))
	return nil
}

//nolint:funlen
func (s *WithdrawalService) process(
	ctx context.Context,
	tx uow.TX,
	msg domain.WithdrawalCreateMessage,
	ob *outbox,
) error {
	fresh, err := rememberIntent(ctx, tx, domain.IntentWithdrawalCreate, msg.SellerID, msg.DedupeKey)
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
	banks, err := txRepo[BankInfoRepository](tx, repoargs.BankInfoRepoName)
	if err != nil {
		return err
	}
	complaints, err := txRepo[ComplaintRepository](tx, repoargs.ComplaintRepoName)
	if err != nil {
		return err
	}
	withdrawals, err := txRepo[WithdrawalRepository](tx, repoargs.WithdrawalRepoName)
	if err != nil {
		return err
	}

	seller, err := users.FindByID(ctx, msg.SellerID)
	if err != nil {
		return referenceNotFound(err, "Seller", msg.SellerID)
	}

	// неверный код и чужие реквизиты отклоняются без уведомления.
	if err = NewOTPGuard(otps, s.args.Now).ValidateAndConsume(ctx, seller.ID, msg.OTP); err != nil {
		return err
	}

	bank, err := banks.FindActiveByID(ctx, msg.BankInfoID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("reading bank info %d: %w", msg.BankInfoID, err)
	}
	if err != nil || bank.UserID != seller.ID {
		return domain.NewBusinessError(domain.KindUnauthorizedOwnership,
			"bank info %d does not belong to seller %d", msg.BankInfoID, seller.ID)
	}

	open, err := complaints.CountOpenBySeller(ctx, seller.ID)
	if err != nil {
		return fmt.Errorf("counting open complaints of seller %d: %w", seller.ID, err)
	}
	if open > 0 {
		ob.notifyUser(seller.ID, "Withdrawal Blocked - Open Complaint(s)", fmt.Sprintf(
			"Your withdrawal request cannot be processed because you have %d open complaint(s). "+
				"Please resolve all complaints before requesting withdrawal.", open,
		))
		return domain.NewBusinessError(domain.KindOpenDisputeBlock, "seller has %d open complaint(s)", open)
	}

	if msg.Amount <= 0 {
		return domain.NewBusinessError(domain.KindInvalidRequest, "withdrawal amount must be positive")
	}
	if err = NewLedger(users).DebitIfSufficient(ctx, seller.ID, msg.Amount); err != nil {
		if domain.IsKind(err, domain.KindInsufficientBalance) {
			ob.notifyUser(seller.ID, "Withdrawal failed", fmt.Sprintf(
				"Insufficient balance for withdrawal of %s VND.", formatCoins(msg.Amount),
			))
		}
		return err
	}

	withdrawal, err := withdrawals.Create(ctx, repoargs.CreateWithdrawal{
		SellerID:      seller.ID,
		BankInfoID:    bank.ID,
		Amount:        msg.Amount,
		BankName:      override(msg.BankName, bank.BankName),
		AccountNumber: override(msg.AccountNumber, bank.AccountNumber),
		AccountName:   override(msg.AccountHolder, bank.AccountHolder),
		Branch:        override(msg.Branch, bank.Branch),
	})
	if err != nil {
		return fmt.Errorf("creating withdrawal for seller %d: %w", seller.ID, err)
	}

	amount := formatCoins(withdrawal.Amount)
	ob.notifyUser(seller.ID, "Withdrawal Request", fmt.Sprintf(
		"Your withdrawal request of %s VND has been submitted and is pending approval.", amount,
	))
	ob.notifyRole(domain.RoleAdmin, "Withdrawal request pending approval", fmt.Sprintf(
		"New withdrawal request of %s VND by %s (user id: %d) is pending approval.",
		amount, seller.DisplayName(), seller.ID,
	))

	html, err := mail.WithdrawalReceived(
		seller.DisplayName(),
		withdrawal.Amount,
		withdrawal.BankName+" - "+withdrawal.AccountNumber,
		s.args.Now().Format("02/01/2006 15:04"),
	)
	if err != nil {
		s.l.WithError(err).Warn("render withdrawal email")
		return nil
	}
	ob.email(seller.Email, mail.SubjectWithdrawalReceived, html)
	return nil
}

// override возвращает значение из сообщения, если оно задано, иначе значение из реквизитов.
func override(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	if t := strings.TrimSpace(*v); t != "" {
		return t
	}
	return fallback
}
