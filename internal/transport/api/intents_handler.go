package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nuid"
)

// IntentsHandler принимает намерения пользователя и ставит их в очередь. Ответ 202 означает только
// постановку в очередь, результат приходит уведомлением.
type IntentsHandler struct {
	svs IntentServicer
}

func NewIntentsHandler(svs IntentServicer) *IntentsHandler {
	return &IntentsHandler{svs: svs}
}

type AcceptedResponse struct {
	DedupeKey string `json:"dedupeKey"`
}

// dedupeKeyOrNew пустой ключ заменяется сгенерированным, чтоб повторная доставка сообщения брокером
// не исполнила намерение дважды.
func dedupeKeyOrNew(key string) string {
	if key != "" {
		return key
	}
	return nuid.Next()
}

type BuyPointsParams struct {
	UserID      int64  `binding:"required,gt=0"               json:"userId"`
	PointsToBuy int64  `binding:"required,gt=0"               json:"pointsToBuy"`
	CostCoins   *int64 `binding:"omitempty,gte=0"             json:"costCoins"`
	OTP         string `binding:"required,otp"                json:"otp"`
	DedupeKey   string `binding:"omitempty,max_bytes=128"     json:"dedupeKey"`
}

// BuyPoints POST RouteGroup + BuyPointsRoute.
func (h *IntentsHandler) BuyPoints(c *gin.Context) {
	var params BuyPointsParams
	if !bindJSON(c, &params) {
		return
	}

	msg := domain.BuyPointsMessage{
		UserID:      params.UserID,
		PointsToBuy: params.PointsToBuy,
		CostCoins:   params.CostCoins,
		OTP:         params.OTP,
		DedupeKey:   dedupeKeyOrNew(params.DedupeKey),
	}
	h.publish(c, msg.DedupeKey, func(ctx context.Context) error {
		return h.svs.BuyPoints(ctx, msg)
	})
}

type SellerRegistrationParams struct {
	UserID      int64   `binding:"required,gt=0"            json:"userId"`
	ShopName    string  `binding:"max_bytes=255"            json:"shopName"`
	Description *string `binding:"omitempty,max_bytes=2000" json:"description"`
	DedupeKey   string  `binding:"omitempty,max_bytes=128"  json:"dedupeKey"`
}

// RegisterSeller POST RouteGroup + SellerRegistrationRoute.
func (h *IntentsHandler) RegisterSeller(c *gin.Context) {
	var params SellerRegistrationParams
	if !bindJSON(c, &params) {
		return
	}

	msg := domain.SellerRegistrationMessage{
		UserID:      params.UserID,
		ShopName:    params.ShopName,
		Description: params.Description,
		DedupeKey:   dedupeKeyOrNew(params.DedupeKey),
	}
	h.publish(c, msg.DedupeKey, func(ctx context.Context) error {
		return h.svs.RegisterSeller(ctx, msg)
	})
}

type WithdrawalParams struct {
	SellerID      int64   `binding:"required,gt=0"           json:"sellerId"`
	BankInfoID    int64   `binding:"required,gt=0"           json:"bankInfoId"`
	Amount        int64   `binding:"required,gt=0"           json:"amount"`
	BankName      *string `binding:"omitempty,max_bytes=255" json:"bankName"`
	AccountNumber *string `binding:"omitempty,max_bytes=64"  json:"accountNumber"`
	AccountHolder *string `binding:"omitempty,max_bytes=255" json:"accountHolder"`
	Branch        *string `binding:"omitempty,max_bytes=255" json:"branch"`
	OTP           string  `binding:"required,otp"            json:"otp"`
	DedupeKey     string  `binding:"omitempty,max_bytes=128" json:"dedupeKey"`
}

// CreateWithdrawal POST RouteGroup + WithdrawalsRoute.
func (h *IntentsHandler) CreateWithdrawal(c *gin.Context) {
	var params WithdrawalParams
	if !bindJSON(c, &params) {
		return
	}

	msg := domain.WithdrawalCreateMessage{
		SellerID:      params.SellerID,
		BankInfoID:    params.BankInfoID,
		Amount:        params.Amount,
		BankName:      params.BankName,
		AccountNumber: params.AccountNumber,
		AccountHolder: params.AccountHolder,
		Branch:        params.Branch,
		OTP:           params.OTP,
		DedupeKey:     dedupeKeyOrNew(params.DedupeKey),
	}
	h.publish(c, msg.DedupeKey, func(ctx context.Context) error {
		return h.svs.CreateWithdrawal(ctx, msg)
	})
}

func (h *IntentsHandler) publish(c *gin.Context, dedupeKey string, fn func(ctx context.Context) error) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := fn(reqCtx); err != nil {
		_ = c.AbortWithError(http.StatusServiceUnavailable, err).SetType(gin.ErrorTypePrivate)
		return
	}
	c.JSON(http.StatusAccepted, AcceptedResponse{DedupeKey: dedupeKey})
}
