package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

type WithdrawalRepository struct {
	conn uow.DBTX
}

func NewWithdrawalRepository(conn uow.DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{conn: conn}
}

// Create создает заявку на вывод в статусе Pending. Реквизиты сохраняются копией на момент заявки.
func (w *WithdrawalRepository) Create(ctx context.Context, args repoargs.CreateWithdrawal) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	err := w.conn.QueryRow(ctx,
		`INSERT INTO withdrawals (seller_id, bank_info_id, amount, status, bank_name, account_number, account_name, branch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, seller_id, bank_info_id, amount, status, bank_name, account_number, account_name, branch, created_at`,
		args.SellerID,
		args.BankInfoID,
		args.Amount,
		domain.WithdrawalStatusPending,
		args.BankName,
		args.AccountNumber,
		args.AccountName,
		args.Branch,
	).Scan(
		&wd.ID,
		&wd.SellerID,
		&wd.BankInfoID,
		&wd.Amount,
		&wd.Status,
		&wd.BankName,
		&wd.AccountNumber,
		&wd.AccountName,
		&wd.Branch,
		&wd.CreatedAt,
	)
	if err != nil {
		return nil, convertErr(err, "creating withdrawal for seller %d", args.SellerID)
	}
	return &wd, nil
}

type BankInfoRepository struct {
	conn uow.DBTX
}

func NewBankInfoRepository(conn uow.DBTX) *BankInfoRepository {
	return &BankInfoRepository{conn: conn}
}

// FindActiveByID возвращает неудаленные реквизиты или domain.ErrRecordNotFound.
func (b *BankInfoRepository) FindActiveByID(ctx context.Context, id int64) (*domain.BankInfo, error) {
	var info domain.BankInfo
	err := b.conn.QueryRow(ctx,
		`SELECT id, user_id, bank_name, account_number, account_holder, branch
		FROM seller_bank_info WHERE id = $1 AND is_delete = FALSE`, id,
	).Scan(&info.ID, &info.UserID, &info.BankName, &info.AccountNumber, &info.AccountHolder, &info.Branch)
	if err != nil {
		return nil, convertErr(err, "finding bank info %d", id)
	}
	return &info, nil
}

type PointPurchaseRepository struct {
	conn uow.DBTX
}

func NewPointPurchaseRepository(conn uow.DBTX) *PointPurchaseRepository {
	return &PointPurchaseRepository{conn: conn}
}

// Create сохраняет аудит-запись покупки баллов.
func (p *PointPurchaseRepository) Create(ctx context.Context, args repoargs.CreatePointPurchase) error {
	_, err := p.conn.Exec(ctx,
		`INSERT INTO shop_point_purchases (user_id, points_bought, coins_spent, points_before, points_after)
		VALUES ($1, $2, $3, $4, $5)`,
		args.UserID, args.PointsBought, args.CoinsSpent, args.PointsBefore, args.PointsAfter,
	)
	return convertErr(err, "recording point purchase of user %d", args.UserID)
}
