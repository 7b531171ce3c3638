package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Errors превращает первую ошибку из контекста в JSON ответ {"error": "..."}.
// Текст публичных ошибок отдается клиенту как есть, для остальных отдается только описание статуса.
// Ответ, уже записанный обработчиком (например, ошибки валидации), не трогается.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}

		first := c.Errors[0]
		msg := strings.ToLower(http.StatusText(status))
		if first.IsType(gin.ErrorTypePublic) {
			msg = first.Error()
		}

		c.JSON(status, gin.H{"error": msg})
		c.Abort()
	}
}
