package api

import (
	"fmt"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/metrics"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup              = "/api"
	OrdersRoute             = "/orders"
	OrderRoute              = "/orders/:id"
	BuyPointsRoute          = "/intents/buy-points"
	SellerRegistrationRoute = "/intents/seller-registration"
	WithdrawalsRoute        = "/intents/withdrawals"
	HealthRoute             = "/healthz"
	MetricsRoute            = "/metrics"
)

type RouterArgs struct {
	Logger        *logrus.Logger
	OrderService  OrderServicer
	IntentService IntentServicer
	Health        HealthChecker
	// Metrics и Gatherer необязательны: без них метрики HTTP не собираются и /metrics не регистрируется.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	if args.Metrics != nil {
		r.Use(args.Metrics.GinMiddleware())
	}
	r.Use(middlewares.Errors())

	healthHandler := NewHealthHandler(args.Health)
	r.GET(HealthRoute, healthHandler.Show)
	if args.Gatherer != nil {
		r.GET(MetricsRoute, gin.WrapH(promhttp.HandlerFor(args.Gatherer, promhttp.HandlerOpts{})))
	}

	ordersHandler := NewOrdersHandler(args.OrderService)
	intentsHandler := NewIntentsHandler(args.IntentService)

	api := r.Group(RouteGroup)

	api.POST(OrdersRoute, ordersHandler.Create)
	api.GET(OrderRoute, ordersHandler.Show)

	api.POST(BuyPointsRoute, intentsHandler.BuyPoints)
	api.POST(SellerRegistrationRoute, intentsHandler.RegisterSeller)
	api.POST(WithdrawalsRoute, intentsHandler.CreateWithdrawal)
	return r, nil
}
