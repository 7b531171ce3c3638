package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

const otpLength = 6

// validateMaxBytes в отличии от тэга max который проверяет длину рун, - проверят длину байт в поле.
func validateMaxBytes(fl validator.FieldLevel) bool {
	param := fl.Param() // получаем значение из тега
	maxBytes, err := strconv.Atoi(param)
	if err != nil {
		return false
	}

	// нужно убедится что значение поля - строка.
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return len([]byte(str)) <= maxBytes
}

// validateOTP код подтверждения из письма: ровно шесть цифр.
func validateOTP(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok || len(str) != otpLength {
		return false
	}
	for i := range len(str) {
		if str[i] < '0' || str[i] > '9' {
			return false
		}
	}
	return true
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("max_bytes", validateMaxBytes); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	if err := v.RegisterValidation("otp", validateOTP); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	return nil
}
