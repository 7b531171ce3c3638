package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
)

// StockAllocator резервирует единицы товара. Строки блокируются с SKIP LOCKED, поэтому
// конкурирующие покупатели получают непересекающиеся наборы единиц.
type StockAllocator struct {
	stock StockRepository
}

func NewStockAllocator(stock StockRepository) *StockAllocator {
	return &StockAllocator{stock: stock}
}

// Precheck быстрая проверка остатка до списания денег. Окончательное решение принимает Allocate.
func (a *StockAllocator) Precheck(ctx context.Context, variantID, quantity int64) error {
	available, err := a.stock.CountAvailable(ctx, variantID)
	if err != nil {
		return fmt.Errorf("counting stock of variant %d: %w", variantID, err)
	}
	if available < quantity {
		return outOfStock(available)
	}
	return nil
}

// Allocate блокирует ровно quantity доступных единиц до конца транзакции. Если свободных единиц
// меньше, возвращает KindInsufficientStock.
func (a *StockAllocator) Allocate(ctx context.Context, variantID, quantity int64) ([]domain.InventoryUnit, error) {
	units, err := a.stock.LockAvailable(ctx, variantID, quantity)
	if err != nil {
		return nil, fmt.Errorf("locking stock of variant %d: %w", variantID, err)
	}
	if int64(len(units)) < quantity {
		return nil, outOfStock(int64(len(units)))
	}
	return units, nil
}

// Attach помечает заблокированные единицы проданными и привязывает их к эскроу-транзакции.
func (a *StockAllocator) Attach(ctx context.Context, units []domain.InventoryUnit, transactionID int64) error {
	ids := make([]int64, len(units))
	for i, unit := range units {
		ids[i] = unit.ID
	}
	rows, err := a.stock.MarkSold(ctx, ids, transactionID)
	if err != nil {
		return fmt.Errorf("marking units sold: %w", err)
	}
	if rows != int64(len(ids)) {
		// единицы заблокированы нами, расхождение означает нарушение целостности.
		return fmt.Errorf("marking units sold: updated %d of %d", rows, len(ids))
	}
	return nil
}

func outOfStock(available int64) error {
	return domain.NewBusinessError(domain.KindInsufficientStock, "Out of stock. Available: %d", available)
}
