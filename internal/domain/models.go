package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID         int64
	Email      string
	FullName   string
	Role       UserRole
	Coins      int64
	ShopStatus ShopStatusType
}

// DisplayName возвращает имя для уведомлений: полное имя, либо email, либо заглушку.
func (u *User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Email != "":
		return u.Email
	default:
		return "User"
	}
}

type Product struct {
	ID       int64
	SellerID int64
	Name     string
}

// Title название товара для текстов уведомлений.
func (p *Product) Title() string {
	if p.Name != "" {
		return p.Name
	}
	return "Product #" + itoa(p.ID)
}

type ProductVariant struct {
	ID        int64
	ProductID int64
	Name      string
	Price     int64
}

// Order заявка на покупку аккаунтов. Единица идемпотентности при повторной доставке сообщения.
type Order struct {
	ID            int64
	RequestID     string
	CustomerID    int64
	ProductID     int64
	VariantID     int64
	Quantity      int64
	TotalPrice    int64
	Status        OrderStatusType
	ErrorMessage  string
	TransactionID *int64
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// IsTerminal сообщает, что заказ больше не может изменяться.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusFailed
}

// InventoryUnit единица товара (аккаунт). Payload хранится зашифрованным и ядром не разбирается.
type InventoryUnit struct {
	ID            int64
	VariantID     int64
	Payload       string
	Status        InventoryStatusType
	TransactionID *int64
	Activated     bool
}

type EscrowTransaction struct {
	ID                int64
	CustomerID        int64
	SellerID          int64
	ProductID         int64
	VariantID         int64
	Quantity          int64
	Amount            int64
	Commission        int64
	SellerShare       int64
	Status            EscrowStatusType
	EscrowReleaseDate time.Time
	CreatedAt         time.Time
	ReleasedAt        *time.Time
}

type Shop struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Points      int64
	Level       int16
	Commission  *decimal.Decimal
}

type BankInfo struct {
	ID            int64
	UserID        int64
	BankName      string
	AccountNumber string
	AccountHolder string
	Branch        string
}

type Withdrawal struct {
	ID            int64
	SellerID      int64
	BankInfoID    int64
	Amount        int64
	Status        WithdrawalStatusType
	BankName      string
	AccountNumber string
	AccountName   string
	Branch        string
	CreatedAt     time.Time
}

// Notification сообщение пользователю или всем пользователям роли. Заполняется одно из полей UserID или Role.
type Notification struct {
	UserID int64
	Role   UserRole
	Title  string
	Body   string
}
