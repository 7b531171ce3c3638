package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/repository/repoargs"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ShopRepository магазины продавцов. Уровень и комиссию магазина пересчитывает триггер
// shop_info_derive_level при изменении баллов.
type ShopRepository struct {
	conn uow.DBTX
}

func NewShopRepository(conn uow.DBTX) *ShopRepository {
	return &ShopRepository{conn: conn}
}

const shopColumns = `id, user_id, shop_name, description, points, shop_level, commission::text`

func (s *ShopRepository) FindActiveByUserID(ctx context.Context, userID int64) (*domain.Shop, error) {
	shop, err := scanShop(s.conn.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shop_info WHERE user_id = $1 AND is_delete = FALSE`, userID,
	))
	if err != nil {
		return nil, convertErr(err, "finding shop of user %d", userID)
	}
	return shop, nil
}

// AddPoints атомарно увеличивает баллы магазина и возвращает новое значение.
// Если активного магазина нет, возвращает domain.ErrRecordNotFound.
func (s *ShopRepository) AddPoints(ctx context.Context, userID, points int64) (int64, error) {
	var total int64
	err := s.conn.QueryRow(ctx,
		`UPDATE shop_info SET points = points + $2
		WHERE user_id = $1 AND is_delete = FALSE
		RETURNING points`,
		userID, points,
	).Scan(&total)
	if err != nil {
		return 0, convertErr(err, "adding %d points to shop of user %d", points, userID)
	}
	return total, nil
}

// Upsert создает магазин продавца с комиссией по умолчанию или обновляет существующий.
// Для существующего магазина имя меняется только при NameProvided, описание - только если задано.
func (s *ShopRepository) Upsert(ctx context.Context, args repoargs.UpsertShop) (*domain.Shop, error) {
	shop, err := scanShop(s.conn.QueryRow(ctx,
		`INSERT INTO shop_info (user_id, shop_name, description, commission)
		VALUES ($1, $2, COALESCE($3, ''), $4::numeric)
		ON CONFLICT (user_id) DO UPDATE SET
			shop_name   = CASE WHEN $5 THEN EXCLUDED.shop_name ELSE shop_info.shop_name END,
			description = COALESCE($3, shop_info.description),
			is_delete   = FALSE,
			updated_at  = NOW()
		RETURNING `+shopColumns,
		args.UserID,
		args.Name,
		args.Description,
		args.DefaultCommission.String(),
		args.NameProvided,
	))
	if err != nil {
		return nil, convertErr(err, "upserting shop of user %d", args.UserID)
	}
	return shop, nil
}

func scanShop(row pgx.Row) (*domain.Shop, error) {
	var (
		shop       domain.Shop
		commission *string
	)
	if err := row.Scan(
		&shop.ID,
		&shop.UserID,
		&shop.Name,
		&shop.Description,
		&shop.Points,
		&shop.Level,
		&commission,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if commission != nil {
		pct, err := decimal.NewFromString(*commission)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		shop.Commission = &pct
	}
	return &shop, nil
}
