package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/jackc/pgx/v5"
)

// EscrowRepository транзакции продаж с удержанием средств до даты освобождения.
type EscrowRepository struct {
	conn uow.DBTX
}

func NewEscrowRepository(conn uow.DBTX) *EscrowRepository {
	return &EscrowRepository{conn: conn}
}

const escrowColumns = `id, customer_id, seller_id, product_id, variant_id, quantity, amount, commission,
	coin_seller, status, escrow_release_date, created_at, released_at`

func (e *EscrowRepository) Create(ctx context.Context, args repoargs.CreateEscrow) (*domain.EscrowTransaction, error) {
	row := e.conn.QueryRow(ctx,
		`INSERT INTO transactions (customer_id, seller_id, product_id, variant_id, quantity, amount, commission,
			coin_seller, status, escrow_release_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+escrowColumns,
		args.CustomerID,
		args.SellerID,
		args.ProductID,
		args.VariantID,
		args.Quantity,
		args.Amount,
		args.Commission,
		args.SellerShare,
		domain.EscrowStatusEscrow,
		args.EscrowReleaseDate,
	)
	tx, err := scanEscrow(row)
	if err != nil {
		return nil, convertErr(err, "creating escrow transaction for customer %d", args.CustomerID)
	}
	return tx, nil
}

// DueForRelease возвращает id транзакций в статусе ESCROW, срок удержания которых истек к моменту now.
// Транзакции с открытой жалобой пропускаются, иначе они занимали бы пачку и вытесняли остальные.
func (e *EscrowRepository) DueForRelease(ctx context.Context, now time.Time, limit uint) ([]int64, error) {
	rows, err := e.conn.Query(ctx,
		`SELECT t.id FROM transactions t
		WHERE t.status = $1 AND t.escrow_release_date <= $2
			AND NOT EXISTS (
				SELECT 1 FROM complaints c WHERE c.transaction_id = t.id AND c.status = ANY($4)
			)
		ORDER BY t.escrow_release_date, t.id
		LIMIT $3`,
		domain.EscrowStatusEscrow, now, int64(limit), openStatuses(),
	)
	if err != nil {
		return nil, convertErr(err, "selecting escrow due for release")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, convertErr(err, "scanning escrow due for release")
	}
	return ids, nil
}

// LockDue блокирует транзакцию, готовую к освобождению. Если транзакция уже освобождена, еще не созрела
// или занята другим воркером, возвращает domain.ErrRecordNotFound.
func (e *EscrowRepository) LockDue(ctx context.Context, id int64, now time.Time) (*domain.EscrowTransaction, error) {
	row := e.conn.QueryRow(ctx,
		`SELECT `+escrowColumns+` FROM transactions
		WHERE id = $1 AND status = $2 AND escrow_release_date <= $3
		FOR UPDATE SKIP LOCKED`,
		id, domain.EscrowStatusEscrow, now,
	)
	tx, err := scanEscrow(row)
	if err != nil {
		return nil, convertErr(err, "locking escrow transaction %d", id)
	}
	return tx, nil
}

func (e *EscrowRepository) MarkReleased(ctx context.Context, id int64, now time.Time) error {
	tag, err := e.conn.Exec(ctx,
		`UPDATE transactions SET status = $2, released_at = $3 WHERE id = $1 AND status = $4`,
		id, domain.EscrowStatusReleased, now, domain.EscrowStatusEscrow,
	)
	if err != nil {
		return convertErr(err, "releasing escrow transaction %d", id)
	}
	return notFoundIfNoRows(tag, "releasing escrow transaction %d", id)
}

func scanEscrow(row pgx.Row) (*domain.EscrowTransaction, error) {
	var tx domain.EscrowTransaction
	if err := row.Scan(
		&tx.ID,
		&tx.CustomerID,
		&tx.SellerID,
		&tx.ProductID,
		&tx.VariantID,
		&tx.Quantity,
		&tx.Amount,
		&tx.Commission,
		&tx.SellerShare,
		&tx.Status,
		&tx.EscrowReleaseDate,
		&tx.CreatedAt,
		&tx.ReleasedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &tx, nil
}
