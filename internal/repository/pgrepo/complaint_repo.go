package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

// ComplaintRepository только чтение: жалобы ведет внешний модуль поддержки.
type ComplaintRepository struct {
	conn uow.DBTX
}

func NewComplaintRepository(conn uow.DBTX) *ComplaintRepository {
	return &ComplaintRepository{conn: conn}
}

func openStatuses() []string {
	statuses := domain.OpenComplaintStatuses()
	res := make([]string, len(statuses))
	for i, s := range statuses {
		res[i] = string(s)
	}
	return res
}

// CountOpenBySeller количество незакрытых жалоб на продавца.
func (c *ComplaintRepository) CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error) {
	var count int64
	err := c.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM complaints WHERE seller_id = $1 AND status = ANY($2)`,
		sellerID, openStatuses(),
	).Scan(&count)
	if err != nil {
		return 0, convertErr(err, "counting open complaints of seller %d", sellerID)
	}
	return count, nil
}

// HasOpenForTransaction есть ли незакрытая жалоба по транзакции.
func (c *ComplaintRepository) HasOpenForTransaction(ctx context.Context, transactionID int64) (bool, error) {
	var exists bool
	err := c.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM complaints WHERE transaction_id = $1 AND status = ANY($2))`,
		transactionID, openStatuses(),
	).Scan(&exists)
	if err != nil {
		return false, convertErr(err, "checking open complaints of transaction %d", transactionID)
	}
	return exists, nil
}
