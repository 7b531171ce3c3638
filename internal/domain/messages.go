package domain

const (
	TopicBuyAccount         = "buy.account.requests"
	TopicBuyPoints          = "buy.points.requests"
	TopicSellerRegistration = "seller.registration.requests"
	TopicWithdrawalCreate   = "withdrawal.requests"
	TopicEmailOutbound      = "email.outbound"
)

// Контракты сообщений очередей. Денежные поля сообщений носят справочный характер, источник истины - база данных.

type BuyAccountMessage struct {
	OrderID int64 `json:"orderId" validate:"gt=0"`
}

type BuyPointsMessage struct {
	UserID      int64  `json:"userId"               validate:"gt=0"`
	PointsToBuy int64  `json:"pointsToBuy"          validate:"gt=0"`
	CostCoins   *int64 `json:"costCoins,omitempty"  validate:"omitempty,gte=0"`
	OTP         string `json:"otp"`
	DedupeKey   string `json:"dedupeKey"            validate:"max=128"`
}

type SellerRegistrationMessage struct {
	UserID      int64   `json:"userId"                validate:"gt=0"`
	ShopName    string  `json:"shopName"              validate:"max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DedupeKey   string  `json:"dedupeKey"             validate:"max=128"`
}

// WithdrawalCreateMessage поля BankName, AccountNumber, AccountHolder и Branch переопределяют
// отображаемые реквизиты, если заданы.
type WithdrawalCreateMessage struct {
	SellerID      int64   `json:"sellerId"                validate:"gt=0"`
	BankInfoID    int64   `json:"bankInfoId"              validate:"gt=0"`
	Amount        int64   `json:"amount"                  validate:"gt=0"`
	BankName      *string `json:"bankName,omitempty"`
	AccountNumber *string `json:"accountNumber,omitempty"`
	AccountHolder *string `json:"accountHolder,omitempty"`
	Branch        *string `json:"branch,omitempty"`
	OTP           string  `json:"otp"`
	DedupeKey     string  `json:"dedupeKey"               validate:"max=128"`
}

// EmailMessage задание на отправку письма, публикуется в очередь исходящей почты.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
