package repoargs

import "time"

type CreateEscrow struct {
	CustomerID        int64
	SellerID          int64
	ProductID         int64
	VariantID         int64
	Quantity          int64
	Amount            int64
	Commission        int64
	SellerShare       int64
	EscrowReleaseDate time.Time
}
