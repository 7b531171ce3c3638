// Package metrics метрики Prometheus обработчиков очередей, эскроу и HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mmo_fulfillment"

// Исходы доставки сообщения.
const (
	DeliveryAck        = "ack"
	DeliveryRetry      = "retry"
	DeliveryMalformed  = "malformed"
	DeliveryDeadLetter = "dead_letter"
)

type Metrics struct {
	Messages       *prometheus.CounterVec
	HandleDuration *prometheus.HistogramVec
	Outcomes       *prometheus.CounterVec
	EscrowReleased prometheus.Counter
	EscrowHeld     prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// New регистрирует метрики в reg. Для тестов удобно передавать prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Processed queue deliveries by intent and delivery outcome.",
		}, []string{"intent", "outcome"}),
		HandleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handle_seconds",
			Help:      "Handler latency by intent.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"intent"}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_outcomes_total",
			Help:      "Business outcomes of intents: completed, failed, skipped, duplicate.",
		}, []string{"intent", "outcome"}),
		EscrowReleased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_released_total",
			Help:      "Escrow transactions released to sellers.",
		}),
		EscrowHeld: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_held_total",
			Help:      "Due escrow transactions left on hold or taken by another worker.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
		}, []string{"method", "path"}),
	}
}

// Record реализует учет бизнес-исходов намерений.
func (m *Metrics) Record(intent domain.IntentType, outcome string) {
	m.Outcomes.WithLabelValues(string(intent), outcome).Inc()
}

func (m *Metrics) ObserveDelivery(intent, outcome string, elapsed time.Duration) {
	m.Messages.WithLabelValues(intent, outcome).Inc()
	m.HandleDuration.WithLabelValues(intent).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRelease(released bool) {
	if released {
		m.EscrowReleased.Inc()
		return
	}
	m.EscrowHeld.Inc()
}

// GinMiddleware считает запросы по шаблону маршрута, неизвестные маршруты пропускаются.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			return
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
