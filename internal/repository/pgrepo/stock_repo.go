package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/jackc/pgx/v5"
)

type StockRepository struct {
	conn uow.DBTX
}

func NewStockRepository(conn uow.DBTX) *StockRepository {
	return &StockRepository{conn: conn}
}

// CountAvailable быстрая проверка остатка без блокировок.
func (s *StockRepository) CountAvailable(ctx context.Context, variantID int64) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM product_variant_accounts
		WHERE variant_id = $1 AND status = $2 AND is_delete = FALSE`,
		variantID, domain.InventoryStatusAvailable,
	).Scan(&count)
	if err != nil {
		return 0, convertErr(err, "counting stock of variant %d", variantID)
	}
	return count, nil
}

// LockAvailable блокирует до limit доступных единиц до конца транзакции. Строки, уже заблокированные
// параллельной транзакцией, пропускаются, поэтому результат может быть короче limit.
func (s *StockRepository) LockAvailable(ctx context.Context, variantID, limit int64) ([]domain.InventoryUnit, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, variant_id, account_data, status, transaction_id, activated
		FROM product_variant_accounts
		WHERE variant_id = $1 AND status = $2 AND is_delete = FALSE
		ORDER BY id
		LIMIT $3
		FOR UPDATE SKIP LOCKED`,
		variantID, domain.InventoryStatusAvailable, limit,
	)
	if err != nil {
		return nil, convertErr(err, "locking stock of variant %d", variantID)
	}

	units, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.InventoryUnit, error) {
		var u domain.InventoryUnit
		scanErr := row.Scan(&u.ID, &u.VariantID, &u.Payload, &u.Status, &u.TransactionID, &u.Activated)
		return u, scanErr
	})
	if err != nil {
		return nil, convertErr(err, "scanning stock of variant %d", variantID)
	}
	return units, nil
}

// MarkSold помечает заблокированные единицы проданными и привязывает их к транзакции.
// Возвращает количество помеченных единиц.
func (s *StockRepository) MarkSold(ctx context.Context, unitIDs []int64, transactionID int64) (int64, error) {
	tag, err := s.conn.Exec(ctx,
		`UPDATE product_variant_accounts
		SET status = $2, transaction_id = $3, activated = FALSE, updated_at = NOW()
		WHERE id = ANY($1) AND status = $4`,
		unitIDs, domain.InventoryStatusSold, transactionID, domain.InventoryStatusAvailable,
	)
	if err != nil {
		return 0, convertErr(err, "marking %d units sold for transaction %d", len(unitIDs), transactionID)
	}
	return tag.RowsAffected(), nil
}
