package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/service"
	"github.com/gin-gonic/gin"
)

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

const defaultOrderQuantity int64 = 1

// CreateOrderParams RequestID ключ идемпотентности заявки, задается клиентом.
// Quantity необязательно: без него покупается одна единица, явный 0 отклоняется валидацией.
type CreateOrderParams struct {
	RequestID  string `binding:"required,max_bytes=64"    json:"requestId"`
	CustomerID int64  `binding:"required,gt=0"            json:"customerId"`
	ProductID  int64  `binding:"required,gt=0"            json:"productId"`
	VariantID  int64  `binding:"required,gt=0"            json:"variantId"`
	Quantity   *int64 `binding:"omitempty,gt=0,lte=1000"  json:"quantity"`
}

func (p CreateOrderParams) quantity() int64 {
	if p.Quantity == nil {
		return defaultOrderQuantity
	}
	return *p.Quantity
}

type OrderResponse struct {
	ID            int64                  `json:"id"`
	RequestID     string                 `json:"requestId"`
	CustomerID    int64                  `json:"customerId"`
	ProductID     int64                  `json:"productId"`
	VariantID     int64                  `json:"variantId"`
	Quantity      int64                  `json:"quantity"`
	TotalPrice    int64                  `json:"totalPrice"`
	Status        domain.OrderStatusType `json:"status"`
	ErrorMessage  string                 `json:"errorMessage,omitempty"`
	TransactionID *int64                 `json:"transactionId,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	ProcessedAt   *time.Time             `json:"processedAt,omitempty"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		RequestID:     o.RequestID,
		CustomerID:    o.CustomerID,
		ProductID:     o.ProductID,
		VariantID:     o.VariantID,
		Quantity:      o.Quantity,
		TotalPrice:    o.TotalPrice,
		Status:        o.Status,
		ErrorMessage:  o.ErrorMessage,
		TransactionID: o.TransactionID,
		CreatedAt:     o.CreatedAt,
		ProcessedAt:   o.ProcessedAt,
	}
}

// Create POST RouteGroup + OrdersRoute. Принимает заявку на покупку, исполнение асинхронное.
// Ответ содержит количество, с которым заказ создан.
func (o *OrdersHandler) Create(c *gin.Context) {
	var params CreateOrderParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, createErr := o.orderSvs.Submit(reqCtx, service.SubmitOrderArgs{
		RequestID:  params.RequestID,
		CustomerID: params.CustomerID,
		ProductID:  params.ProductID,
		VariantID:  params.VariantID,
		Quantity:   params.quantity(),
	})
	if createErr != nil {
		var duplicateErr *domain.DuplicateOrderError
		var bizErr *domain.BusinessError

		switch {
		case errors.As(createErr, &duplicateErr):
			// повтор заявки своим же клиентом отдает существующий заказ, чужой ключ - конфликт.
			if duplicateErr.Order.CustomerID == params.CustomerID {
				c.JSON(http.StatusOK, newOrderResponse(duplicateErr.Order))
				return
			}
			c.AbortWithStatus(http.StatusConflict)
		case errors.As(createErr, &bizErr):
			_ = c.AbortWithError(http.StatusUnprocessableEntity, errors.New(bizErr.Reason)).
				SetType(gin.ErrorTypePublic)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, createErr).
				SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusAccepted, newOrderResponse(order))
}

type OrderURIParams struct {
	ID int64 `binding:"required,gt=0" uri:"id"`
}

// Show GET RouteGroup + OrderRoute. Статус заказа для опроса клиентом.
func (o *OrdersHandler) Show(c *gin.Context) {
	var params OrderURIParams
	if bindErr := c.ShouldBindUri(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.Get(reqCtx, params.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}
