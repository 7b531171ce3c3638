package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger пишет в лог каждый запрос. Ошибки уровня 5xx пишутся как Error вместе с приватной ошибкой обработчика.
func Logger(l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithFields(logrus.Fields{
		"component": "api",
		"module":    "router",
	})

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"size":     c.Writer.Size(),
			"duration": time.Since(start).Milliseconds(),
		}
		reqLog := entry.WithFields(fields)

		if len(c.Errors) > 0 {
			reqLog = reqLog.WithError(c.Errors.Last())
		}
		if c.Writer.Status() >= 500 { //nolint:mnd
			reqLog.Error("request")
			return
		}
		reqLog.Info("request")
	}
}
