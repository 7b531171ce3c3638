package repoargs

type CreateOrder struct {
	RequestID  string
	CustomerID int64
	ProductID  int64
	VariantID  int64
	Quantity   int64
	TotalPrice int64
}
