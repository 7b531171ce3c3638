package service

import (
	"errors"
	"testing"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/service/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerDebitIfSufficient(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	ledger := NewLedger(users)

	users.EXPECT().DebitIfSufficient(gomock.Any(), int64(1), int64(100)).Return(int64(1), nil)
	require.NoError(t, ledger.DebitIfSufficient(t.Context(), 1, 100))

	users.EXPECT().DebitIfSufficient(gomock.Any(), int64(1), int64(5000)).Return(int64(0), nil)
	err := ledger.DebitIfSufficient(t.Context(), 1, 5000)
	assert.True(t, domain.IsKind(err, domain.KindInsufficientBalance))

	err = ledger.DebitIfSufficient(t.Context(), 1, -1)
	require.Error(t, err)
	assert.False(t, domain.IsBusiness(err))
}

func TestLedgerCredit(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	ledger := NewLedger(users)

	// нулевое зачисление не ходит в базу.
	require.NoError(t, ledger.Credit(t.Context(), 1, 0))

	users.EXPECT().Credit(gomock.Any(), int64(1), int64(50)).Return(nil)
	require.NoError(t, ledger.Credit(t.Context(), 1, 50))

	users.EXPECT().Credit(gomock.Any(), int64(2), int64(50)).Return(domain.ErrRecordNotFound)
	require.ErrorIs(t, ledger.Credit(t.Context(), 2, 50), domain.ErrRecordNotFound)
}

func TestOTPGuard(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dbErr := errors.New("db down")

	cases := []struct {
		name     string
		code     string
		prepare  func(otps *mocks.MockOTPRepository)
		wantKind domain.BusinessErrorKind
		wantErr  error
	}{
		{
			name: "valid code",
			code: "123456",
			prepare: func(otps *mocks.MockOTPRepository) {
				otps.EXPECT().ConsumeLatestValid(gomock.Any(), int64(1), "123456", now).Return(true, nil)
			},
		},
		{
			name: "used or expired code",
			code: "123456",
			prepare: func(otps *mocks.MockOTPRepository) {
				otps.EXPECT().ConsumeLatestValid(gomock.Any(), int64(1), "123456", now).Return(false, nil)
			},
			wantKind: domain.KindInvalidOrExpiredOTP,
		},
		{
			name:     "blank code is never checked",
			code:     "  ",
			prepare:  func(*mocks.MockOTPRepository) {},
			wantKind: domain.KindInvalidOrExpiredOTP,
		},
		{
			name: "storage failure",
			code: "123456",
			prepare: func(otps *mocks.MockOTPRepository) {
				otps.EXPECT().ConsumeLatestValid(gomock.Any(), int64(1), "123456", now).Return(false, dbErr)
			},
			wantErr: dbErr,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			otps := mocks.NewMockOTPRepository(ctrl)
			tc.prepare(otps)

			err := NewOTPGuard(otps, func() time.Time { return now }).ValidateAndConsume(t.Context(), 1, tc.code)
			switch {
			case tc.wantKind != "":
				assert.True(t, domain.IsKind(err, tc.wantKind))
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
				assert.False(t, domain.IsBusiness(err))
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestOTPGuardSecondUseFails(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctrl := gomock.NewController(t)
	otps := mocks.NewMockOTPRepository(ctrl)
	guard := NewOTPGuard(otps, func() time.Time { return now })

	gomock.InOrder(
		otps.EXPECT().ConsumeLatestValid(gomock.Any(), int64(1), "654321", now).Return(true, nil),
		otps.EXPECT().ConsumeLatestValid(gomock.Any(), int64(1), "654321", now).Return(false, nil),
	)

	require.NoError(t, guard.ValidateAndConsume(t.Context(), 1, "654321"))
	assert.True(t, domain.IsKind(guard.ValidateAndConsume(t.Context(), 1, "654321"), domain.KindInvalidOrExpiredOTP))
}

func TestStockAllocator(t *testing.T) {
	ctrl := gomock.NewController(t)
	stock := mocks.NewMockStockRepository(ctrl)
	allocator := NewStockAllocator(stock)

	stock.EXPECT().CountAvailable(gomock.Any(), int64(9)).Return(int64(1), nil)
	err := allocator.Precheck(t.Context(), 9, 2)
	require.True(t, domain.IsKind(err, domain.KindInsufficientStock))
	assert.Equal(t, "Out of stock. Available: 1", err.(*domain.BusinessError).Reason) //nolint:errorlint

	units := []domain.InventoryUnit{{ID: 1}, {ID: 2}}
	stock.EXPECT().LockAvailable(gomock.Any(), int64(9), int64(2)).Return(units, nil)
	got, err := allocator.Allocate(t.Context(), 9, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	stock.EXPECT().MarkSold(gomock.Any(), []int64{1, 2}, int64(77)).Return(int64(1), nil)
	err = allocator.Attach(t.Context(), units, 77)
	require.Error(t, err)
	assert.False(t, domain.IsBusiness(err))
}
