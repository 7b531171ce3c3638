package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

// UserRepository пользователи и их баланс монет. Все изменения баланса выполняются одним условным
// UPDATE, без предварительного чтения баланса в приложении.
type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, email, COALESCE(full_name, ''), role, coins, shop_status`

// FindByID возвращает пользователя или domain.ErrRecordNotFound.
func (u *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.Coins,
		&user.ShopStatus,
	); err != nil {
		return nil, convertErr(err, "finding user %d", id)
	}
	return &user, nil
}

// DebitIfSufficient списывает amount монет, только если баланс не меньше amount.
// Возвращает количество затронутых строк: 0 означает нехватку средств (или отсутствие пользователя).
func (u *UserRepository) DebitIfSufficient(ctx context.Context, userID, amount int64) (int64, error) {
	tag, err := u.conn.Exec(ctx,
		`UPDATE users SET coins = coins - $2, updated_at = NOW() WHERE id = $1 AND coins >= $2`,
		userID, amount,
	)
	if err != nil {
		return 0, convertErr(err, "debiting %d coins from user %d", amount, userID)
	}
	return tag.RowsAffected(), nil
}

// Credit безусловно зачисляет amount монет. Используется для возвратов и компенсаций.
func (u *UserRepository) Credit(ctx context.Context, userID, amount int64) error {
	tag, err := u.conn.Exec(ctx,
		`UPDATE users SET coins = coins + $2, updated_at = NOW() WHERE id = $1`,
		userID, amount,
	)
	if err != nil {
		return convertErr(err, "crediting %d coins to user %d", amount, userID)
	}
	return notFoundIfNoRows(tag, "crediting %d coins to user %d", amount, userID)
}

// ActivateSellerIfNotActive одним запросом активирует продавца и списывает регистрационный взнос.
// 0 затронутых строк означает, что продавец уже активен либо средств недостаточно.
func (u *UserRepository) ActivateSellerIfNotActive(ctx context.Context, userID, fee int64) (int64, error) {
	tag, err := u.conn.Exec(ctx,
		`UPDATE users
		SET coins = coins - $2, shop_status = $3, updated_at = NOW()
		WHERE id = $1 AND coins >= $2 AND shop_status <> $3`,
		userID, fee, domain.ShopStatusActive,
	)
	if err != nil {
		return 0, convertErr(err, "activating seller %d", userID)
	}
	return tag.RowsAffected(), nil
}

// PromoteToSeller переводит покупателя в роль продавца. Другие роли не трогает.
func (u *UserRepository) PromoteToSeller(ctx context.Context, userID int64) error {
	_, err := u.conn.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND role = $3`,
		userID, domain.RoleSeller, domain.RoleCustomer,
	)
	return convertErr(err, "promoting user %d to seller", userID)
}
