package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON разбирает тело запроса в params. Ошибки валидации отдаются клиентом как 422 со списком
// полей, ошибки разбора как 400. Возвращает false, если запрос уже завершен.
func bindJSON(c *gin.Context, params any) bool {
	bindErr := c.ShouldBindJSON(params)
	if bindErr == nil {
		return true
	}

	var valErrs validator.ValidationErrors
	if errors.As(bindErr, &valErrs) {
		fields := make(map[string]string, len(valErrs))
		for _, fe := range valErrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
		return false
	}
	_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
	return false
}
