package domain

import "strconv"

type OrderStatusType string

const (
	OrderStatusPending    OrderStatusType = "PENDING"
	OrderStatusProcessing OrderStatusType = "PROCESSING"
	OrderStatusCompleted  OrderStatusType = "COMPLETED"
	OrderStatusFailed     OrderStatusType = "FAILED"
)

type InventoryStatusType string

const (
	InventoryStatusAvailable InventoryStatusType = "Available"
	InventoryStatusSold      InventoryStatusType = "Sold"
)

type EscrowStatusType string

const (
	EscrowStatusEscrow   EscrowStatusType = "ESCROW"
	EscrowStatusReleased EscrowStatusType = "RELEASED"
	EscrowStatusRefunded EscrowStatusType = "REFUNDED"
	EscrowStatusDisputed EscrowStatusType = "DISPUTED"
)

type WithdrawalStatusType string

const (
	WithdrawalStatusPending  WithdrawalStatusType = "Pending"
	WithdrawalStatusApproved WithdrawalStatusType = "Approved"
	WithdrawalStatusRejected WithdrawalStatusType = "Rejected"
)

type ShopStatusType string

const (
	ShopStatusInactive ShopStatusType = "Inactive"
	ShopStatusActive   ShopStatusType = "Active"
)

type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleSeller   UserRole = "SELLER"
	RoleAdmin    UserRole = "ADMIN"
)

// ComplaintStatusType статусы жалоб. Открытыми считаются NEW, IN_PROGRESS, PENDING_CONFIRMATION и ESCALATED.
type ComplaintStatusType string

const (
	ComplaintStatusNew                 ComplaintStatusType = "NEW"
	ComplaintStatusInProgress          ComplaintStatusType = "IN_PROGRESS"
	ComplaintStatusPendingConfirmation ComplaintStatusType = "PENDING_CONFIRMATION"
	ComplaintStatusEscalated           ComplaintStatusType = "ESCALATED"
	ComplaintStatusResolved            ComplaintStatusType = "RESOLVED"
	ComplaintStatusClosedByAdmin       ComplaintStatusType = "CLOSED_BY_ADMIN"
	ComplaintStatusCancelled           ComplaintStatusType = "CANCELLED"
)

// OpenComplaintStatuses список статусов, блокирующих вывод средств и освобождение эскроу.
func OpenComplaintStatuses() []ComplaintStatusType {
	return []ComplaintStatusType{
		ComplaintStatusNew,
		ComplaintStatusInProgress,
		ComplaintStatusPendingConfirmation,
		ComplaintStatusEscalated,
	}
}

type IntentType string

const (
	IntentBuyAccount         IntentType = "buy_account"
	IntentBuyPoints          IntentType = "buy_points"
	IntentSellerRegistration IntentType = "seller_registration"
	IntentWithdrawalCreate   IntentType = "withdrawal_create"
)

// ConfigKeyDefaultCommission ключ системной настройки с комиссией по умолчанию, в процентах.
const ConfigKeyDefaultCommission = "commission.default_percentage"

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
