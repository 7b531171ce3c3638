package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
)

// Ledger изменения баланса монет. Списание выполняется одним условным UPDATE, поэтому
// параллельные списания не уводят баланс в минус.
type Ledger struct {
	users UserRepository
}

func NewLedger(users UserRepository) *Ledger {
	return &Ledger{users: users}
}

// DebitIfSufficient списывает amount монет. Если средств не хватает, возвращает бизнес-ошибку
// KindInsufficientBalance и баланс не меняется.
func (l *Ledger) DebitIfSufficient(ctx context.Context, userID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit user %d: negative amount %d", userID, amount)
	}
	rows, err := l.users.DebitIfSufficient(ctx, userID, amount)
	if err != nil {
		return fmt.Errorf("debit user %d: %w", userID, err)
	}
	if rows == 0 {
		return domain.NewBusinessError(domain.KindInsufficientBalance, "Insufficient coins")
	}
	return nil
}

// Credit зачисляет amount монет безусловно. Используется для возвратов и выплат продавцу.
func (l *Ledger) Credit(ctx context.Context, userID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit user %d: negative amount %d", userID, amount)
	}
	if amount == 0 {
		return nil
	}
	if err := l.users.Credit(ctx, userID, amount); err != nil {
		return fmt.Errorf("credit user %d: %w", userID, err)
	}
	return nil
}
