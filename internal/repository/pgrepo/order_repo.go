package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

const orderColumns = `id, request_id, customer_id, product_id, variant_id, quantity, total_price, status,
	COALESCE(error_message, ''), transaction_id, created_at, processed_at`

// CreatePending создает заказ в статусе PENDING. При повторе request_id возвращает domain.ErrDuplicateKey.
func (o *OrderRepository) CreatePending(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`INSERT INTO orders (request_id, customer_id, product_id, variant_id, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		args.RequestID,
		args.CustomerID,
		args.ProductID,
		args.VariantID,
		args.Quantity,
		args.TotalPrice,
		domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order %s", args.RequestID)
	}
	return order, nil
}

func (o *OrderRepository) FindByRequestID(ctx context.Context, requestID string) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE request_id = $1`, requestID))
	if err != nil {
		return nil, convertErr(err, "finding order by request id %s", requestID)
	}
	return order, nil
}

func (o *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding order %d", id)
	}
	return order, nil
}

// FindByIDForUpdate читает заказ с блокировкой строки до конца транзакции. Так параллельные
// доставки одного сообщения выполняются строго по очереди.
func (o *OrderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, convertErr(err, "locking order %d", id)
	}
	return order, nil
}

// MarkProcessing переводит нетерминальный заказ в PROCESSING. Для терминального или отсутствующего
// заказа возвращает domain.ErrRecordNotFound.
func (o *OrderRepository) MarkProcessing(ctx context.Context, id int64) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`UPDATE orders SET status = $2, processed_at = NOW()
		WHERE id = $1 AND status IN ($3, $2)
		RETURNING `+orderColumns,
		id, domain.OrderStatusProcessing, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "marking order %d processing", id)
	}
	return order, nil
}

// MarkCompleted фиксирует успешное исполнение и ссылку на эскроу-транзакцию.
func (o *OrderRepository) MarkCompleted(ctx context.Context, id, transactionID int64) error {
	tag, err := o.conn.Exec(ctx,
		`UPDATE orders SET status = $2, transaction_id = $3, error_message = NULL, processed_at = NOW()
		WHERE id = $1 AND status NOT IN ($2, $4)`,
		id, domain.OrderStatusCompleted, transactionID, domain.OrderStatusFailed,
	)
	if err != nil {
		return convertErr(err, "completing order %d", id)
	}
	return notFoundIfNoRows(tag, "completing order %d", id)
}

// MarkFailed фиксирует терминальную бизнес-ошибку с причиной для пользователя.
func (o *OrderRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	tag, err := o.conn.Exec(ctx,
		`UPDATE orders SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = $1 AND status NOT IN ($2, $4)`,
		id, domain.OrderStatusFailed, reason, domain.OrderStatusCompleted,
	)
	if err != nil {
		return convertErr(err, "failing order %d", id)
	}
	return notFoundIfNoRows(tag, "failing order %d", id)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order       domain.Order
		processedAt *time.Time
	)
	if err := row.Scan(
		&order.ID,
		&order.RequestID,
		&order.CustomerID,
		&order.ProductID,
		&order.VariantID,
		&order.Quantity,
		&order.TotalPrice,
		&order.Status,
		&order.ErrorMessage,
		&order.TransactionID,
		&order.CreatedAt,
		&processedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	order.ProcessedAt = processedAt
	return &order, nil
}
