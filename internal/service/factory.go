package service

import (
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

type AppServices struct {
	OrderService              *OrderService
	IntentService             *IntentService
	BuyAccountService         *BuyAccountService
	BuyPointsService          *BuyPointsService
	SellerRegistrationService *SellerRegistrationService
	WithdrawalService         *WithdrawalService
	EscrowReleaseService      *EscrowReleaseService
}

func Factory(unitOfWork uow.UOW, publisher Publisher, args FulfillmentArgs) (*AppServices, error) {
	orderService, orderServiceErr := NewOrderService(unitOfWork, publisher)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	buyAccountService, buyAccountErr := NewBuyAccountService(unitOfWork, args)
	if buyAccountErr != nil {
		return nil, fmt.Errorf("service factory: %s", buyAccountErr.Error())
	}

	escrowService, escrowErr := NewEscrowReleaseService(unitOfWork, args)
	if escrowErr != nil {
		return nil, fmt.Errorf("service factory: %s", escrowErr.Error())
	}

	return &AppServices{
		OrderService:              orderService,
		IntentService:             NewIntentService(publisher),
		BuyAccountService:         buyAccountService,
		BuyPointsService:          NewBuyPointsService(unitOfWork, args),
		SellerRegistrationService: NewSellerRegistrationService(unitOfWork, args),
		WithdrawalService:         NewWithdrawalService(unitOfWork, args),
		EscrowReleaseService:      escrowService,
	}, nil
}
