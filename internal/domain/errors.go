package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")
)

// DuplicateOrderError заказ с таким request id уже существует.
type DuplicateOrderError struct {
	Order *Order
}

func NewDuplicateOrderError(order *Order) error {
	return &DuplicateOrderError{Order: order}
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf(
		"order with request id %s already exists for customer with id %d",
		e.Order.RequestID,
		e.Order.CustomerID,
	)
}

// BusinessErrorKind вид ожидаемого бизнес-исхода. Такие исходы терминальны и не приводят к повторной доставке.
type BusinessErrorKind string

const (
	KindReferenceNotFound     BusinessErrorKind = "reference_not_found"
	KindInsufficientBalance   BusinessErrorKind = "insufficient_balance"
	KindInsufficientStock     BusinessErrorKind = "insufficient_stock"
	KindInvalidOrExpiredOTP   BusinessErrorKind = "invalid_or_expired_otp"
	KindUnauthorizedOwnership BusinessErrorKind = "unauthorized_ownership"
	KindOpenDisputeBlock      BusinessErrorKind = "open_dispute_block"
	KindAlreadyProcessed      BusinessErrorKind = "already_processed"
	KindInvalidRequest        BusinessErrorKind = "invalid_request"
)

// BusinessError терминальная ошибка бизнес-правила. Reason показывается пользователю.
type BusinessError struct {
	Kind   BusinessErrorKind
	Reason string
}

func NewBusinessError(kind BusinessErrorKind, format string, args ...any) *BusinessError {
	return &BusinessError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is позволяет сравнивать ошибки по виду: errors.Is(err, &BusinessError{Kind: KindInsufficientStock}).
func (e *BusinessError) Is(target error) bool {
	var t *BusinessError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// AsBusiness извлекает *BusinessError из цепочки ошибок.
func AsBusiness(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsBusiness true для терминальных бизнес-ошибок, false для инфраструктурных.
func IsBusiness(err error) bool {
	_, ok := AsBusiness(err)
	return ok
}

// IsKind проверяет вид бизнес-ошибки.
func IsKind(err error, kind BusinessErrorKind) bool {
	be, ok := AsBusiness(err)
	return ok && be.Kind == kind
}
