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

// EscrowReleaseService переводит долю продавца из эскроу на баланс после окончания срока удержания.
// Транзакции с открытыми жалобами не освобождаются.
type EscrowReleaseService struct {
	uow        uow.UOW
	escrowRepo EscrowRepository
	args       FulfillmentArgs
	l          *logrus.Entry
}

func NewEscrowReleaseService(u uow.UOW, args FulfillmentArgs) (*EscrowReleaseService, error) {
	escrowRepo, err := poolRepo[EscrowRepository](u, repoargs.EscrowRepoName)
	if err != nil {
		return nil, err
	}
	a := args.withDefaults()
	return &EscrowReleaseService{
		uow:        u,
		escrowRepo: escrowRepo,
		args:       a,
		l: a.Logger.WithFields(logrus.Fields{
			"component": "escrow",
			"module":    "release",
		}),
	}, nil
}

// DueForRelease возвращает id эскроу-транзакций, срок удержания которых истек.
func (s *EscrowReleaseService) DueForRelease(ctx context.Context, limit uint) ([]int64, error) {
	ids, err := s.escrowRepo.DueForRelease(ctx, s.args.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("selecting escrow due for release: %w", err)
	}
	return ids, nil
}

// Release освобождает одну эскроу-транзакцию. Возвращает false, если транзакция уже обработана,
// заблокирована другим воркером или по ней есть открытая жалоба.
func (s *EscrowReleaseService) Release(ctx context.Context, id int64) (bool, error) {
	var (
		ob       outbox
		released bool
	)
	now := s.args.Now()

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		escrows, err := txRepo[EscrowRepository](tx, repoargs.EscrowRepoName)
		if err != nil {
			return err
		}
		complaints, err := txRepo[ComplaintRepository](tx, repoargs.ComplaintRepoName)
		if err != nil {
			return err
		}
		users, err := txRepo[UserRepository](tx, repoargs.UserRepoName)
		if err != nil {
			return err
		}

		escrow, err := escrows.LockDue(c, id, now)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("locking escrow %d: %w", id, err)
		}

		disputed, err := complaints.HasOpenForTransaction(c, escrow.ID)
		if err != nil {
			return fmt.Errorf("checking complaints of escrow %d: %w", escrow.ID, err)
		}
		if disputed {
			s.l.WithField("escrowID", escrow.ID).Info("escrow has open complaint, hold")
			return nil
		}

		if err = escrows.MarkReleased(c, escrow.ID, now); err != nil {
			return fmt.Errorf("releasing escrow %d: %w", escrow.ID, err)
		}
		if err = NewLedger(users).Credit(c, escrow.SellerID, escrow.SellerShare); err != nil {
			return err
		}

		ob.notifyUser(escrow.SellerID, "Escrow released", fmt.Sprintf(
			"%s coins from transaction #%d have been released to your balance.",
			formatCoins(escrow.SellerShare), escrow.ID,
		))
		released = true
		return nil
	})
	if txErr != nil {
		return false, fmt.Errorf("releasing escrow %d: %w", id, txErr)
	}

	ob.flush(ctx, s.args.Notifications, s.args.Email)
	return released, nil
}
