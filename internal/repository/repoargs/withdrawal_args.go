package repoargs

type CreateWithdrawal struct {
	SellerID      int64
	BankInfoID    int64
	Amount        int64
	BankName      string
	AccountNumber string
	AccountName   string
	Branch        string
}
