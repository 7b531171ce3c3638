package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/shopspring/decimal"
)

// FallbackCommissionPercentage используется, когда ни магазин, ни системные настройки не задают комиссию.
var FallbackCommissionPercentage = decimal.RequireFromString("5.00") //nolint:gochecknoglobals

//nolint:gochecknoglobals
var (
	minPercentage = decimal.Zero
	maxPercentage = decimal.NewFromInt(100)
)

// CommissionSplit разбиение суммы. Fee + SellerShare == Amount всегда.
type CommissionSplit struct {
	Amount      int64
	Percentage  decimal.Decimal
	Fee         int64
	SellerShare int64
}

// SplitCommission считает комиссию платформы. Процент ограничивается диапазоном [0, 100],
// комиссия округляется до целой монеты half away from zero.
func SplitCommission(amount int64, percentage decimal.Decimal) CommissionSplit {
	pct := clampPercentage(percentage)
	fee := decimal.NewFromInt(amount).Mul(pct).Shift(-2).Round(0).IntPart()
	return CommissionSplit{
		Amount:      amount,
		Percentage:  pct,
		Fee:         fee,
		SellerShare: amount - fee,
	}
}

func clampPercentage(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(minPercentage) {
		return minPercentage
	}
	if p.GreaterThan(maxPercentage) {
		return maxPercentage
	}
	return p
}

// CommissionResolver определяет процент комиссии продавца: комиссия активного магазина,
// иначе системная настройка, иначе FallbackCommissionPercentage.
type CommissionResolver struct {
	shops   ShopRepository
	configs SystemConfigRepository
}

func NewCommissionResolver(shops ShopRepository, configs SystemConfigRepository) *CommissionResolver {
	return &CommissionResolver{shops: shops, configs: configs}
}

func (r *CommissionResolver) Resolve(ctx context.Context, sellerID int64) (decimal.Decimal, error) {
	shop, err := r.shops.FindActiveByUserID(ctx, sellerID)
	switch {
	case err == nil && shop.Commission != nil:
		return clampPercentage(*shop.Commission), nil
	case err != nil && !errors.Is(err, domain.ErrRecordNotFound):
		return decimal.Zero, fmt.Errorf("resolving commission of seller %d: %w", sellerID, err)
	}
	return r.DefaultPercentage(ctx)
}

// DefaultPercentage системная комиссия по умолчанию. Некорректное значение настройки игнорируется.
func (r *CommissionResolver) DefaultPercentage(ctx context.Context) (decimal.Decimal, error) {
	raw, err := r.configs.GetValue(ctx, domain.ConfigKeyDefaultCommission)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return FallbackCommissionPercentage, nil
		}
		return decimal.Zero, fmt.Errorf("reading default commission: %w", err)
	}
	pct, parseErr := decimal.NewFromString(raw)
	if parseErr != nil {
		return FallbackCommissionPercentage, nil //nolint:nilerr
	}
	return clampPercentage(pct.Round(2)), nil
}
