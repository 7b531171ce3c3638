package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
)

// OTPGuard проверяет и погашает одноразовый код. Код погашается атомарно: из двух параллельных
// попыток с одним кодом успешна только одна.
type OTPGuard struct {
	otps OTPRepository
	now  func() time.Time
}

func NewOTPGuard(otps OTPRepository, now func() time.Time) *OTPGuard {
	if now == nil {
		now = time.Now
	}
	return &OTPGuard{otps: otps, now: now}
}

func (g *OTPGuard) ValidateAndConsume(ctx context.Context, userID int64, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return invalidOTP()
	}
	ok, err := g.otps.ConsumeLatestValid(ctx, userID, code, g.now())
	if err != nil {
		return fmt.Errorf("consuming otp of user %d: %w", userID, err)
	}
	if !ok {
		return invalidOTP()
	}
	return nil
}

func invalidOTP() error {
	return domain.NewBusinessError(domain.KindInvalidOrExpiredOTP, "The verification code is invalid or has expired.")
}
