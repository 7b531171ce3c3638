package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAndObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Record(domain.IntentBuyAccount, "completed")
	m.Record(domain.IntentBuyAccount, "completed")
	m.Record(domain.IntentWithdrawalCreate, "failed")
	m.ObserveDelivery("buy_account", DeliveryRetry, 10*time.Millisecond)
	m.ObserveRelease(true)
	m.ObserveRelease(false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Outcomes.WithLabelValues("buy_account", "completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Outcomes.WithLabelValues("withdrawal_create", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Messages.WithLabelValues("buy_account", DeliveryRetry)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EscrowReleased), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EscrowHeld), 0)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/orders/1", "/api/orders/2", "/unknown"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/orders/:id", "200")), 0)
}
