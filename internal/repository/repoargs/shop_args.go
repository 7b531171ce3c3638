package repoargs

import "github.com/shopspring/decimal"

// UpsertShop создает магазин продавца, либо обновляет имя и описание существующего.
// Description == nil оставляет описание без изменений.
type UpsertShop struct {
	UserID            int64
	Name              string
	Description       *string
	NameProvided      bool
	DefaultCommission decimal.Decimal
}

type CreatePointPurchase struct {
	UserID       int64
	PointsBought int64
	CoinsSpent   int64
	PointsBefore int64
	PointsAfter  int64
}
