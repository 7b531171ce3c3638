package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

// CatalogRepository читает товары и варианты. Удаленные записи считаются отсутствующими.
type CatalogRepository struct {
	conn uow.DBTX
}

func NewCatalogRepository(conn uow.DBTX) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

func (c *CatalogRepository) FindActiveProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := c.conn.QueryRow(ctx,
		`SELECT id, seller_id, name FROM products WHERE id = $1 AND is_delete = FALSE`, id,
	).Scan(&p.ID, &p.SellerID, &p.Name)
	if err != nil {
		return nil, convertErr(err, "finding product %d", id)
	}
	return &p, nil
}

func (c *CatalogRepository) FindActiveVariant(ctx context.Context, id int64) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := c.conn.QueryRow(ctx,
		`SELECT id, product_id, name, price FROM product_variants WHERE id = $1 AND is_delete = FALSE`, id,
	).Scan(&v.ID, &v.ProductID, &v.Name, &v.Price)
	if err != nil {
		return nil, convertErr(err, "finding variant %d", id)
	}
	return &v, nil
}
