package escrow

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/internal/metrics"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/escrow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SweeperTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockReleaser
	metrics     *metrics.Metrics
	sweeper     *Sweeper
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperTestSuite))
}

func (s *SweeperTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockReleaser(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.sweeper = New(s.mockService, logger).
		SetLimitPerIteration(10).
		SetReleaseWorkers(3).
		SetInterval(time.Hour).
		SetObserver(s.metrics)
}

func (s *SweeperTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SweeperTestSuite) TestSweepNothingDue() {
	s.mockService.EXPECT().DueForRelease(gomock.Any(), uint(10)).Return(nil, nil)

	res, err := s.sweeper.sweep(s.T().Context())

	s.Zero(res.Due)
	s.ErrorIs(err, ErrNothingDue)
}

func (s *SweeperTestSuite) TestSweepReleasesEachDueEscrow() {
	s.mockService.EXPECT().DueForRelease(gomock.Any(), uint(10)).Return([]int64{1, 2, 3, 4}, nil)
	s.mockService.EXPECT().Release(gomock.Any(), int64(1)).Return(true, nil)
	s.mockService.EXPECT().Release(gomock.Any(), int64(2)).Return(true, nil)
	// удержан открытой жалобой.
	s.mockService.EXPECT().Release(gomock.Any(), int64(3)).Return(false, nil)
	s.mockService.EXPECT().Release(gomock.Any(), int64(4)).Return(false, errors.New("deadlock detected"))

	res, err := s.sweeper.sweep(s.T().Context())

	s.Require().NoError(err)
	s.Equal(sweepResult{Due: 4, Released: 2}, res)
	s.InDelta(2, testutil.ToFloat64(s.metrics.EscrowReleased), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.EscrowHeld), 0)
}

func (s *SweeperTestSuite) TestSweepProduceError() {
	dbErr := errors.New("connection refused")
	s.mockService.EXPECT().DueForRelease(gomock.Any(), uint(10)).Return(nil, dbErr)

	_, err := s.sweeper.sweep(s.T().Context())

	s.ErrorIs(err, dbErr)
}

func (s *SweeperTestSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.T().Context())

	s.mockService.EXPECT().
		DueForRelease(gomock.Any(), uint(10)).
		DoAndReturn(func(context.Context, uint) ([]int64, error) {
			cancel()
			return nil, nil
		})

	done := make(chan error, 1)
	go func() { done <- s.sweeper.Run(ctx) }()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("sweeper did not stop")
	}
}

func (s *SweeperTestSuite) TestRunContinuesAfterFullBatch() {
	ctx, cancel := context.WithCancel(s.T().Context())
	s.sweeper.SetLimitPerIteration(2)

	gomock.InOrder(
		s.mockService.EXPECT().DueForRelease(gomock.Any(), uint(2)).Return([]int64{1, 2}, nil),
		s.mockService.EXPECT().
			DueForRelease(gomock.Any(), uint(2)).
			DoAndReturn(func(context.Context, uint) ([]int64, error) {
				cancel()
				return []int64{3}, nil
			}),
	)
	s.mockService.EXPECT().Release(gomock.Any(), gomock.Any()).Return(true, nil).MinTimes(2).MaxTimes(3)

	s.Require().NoError(s.sweeper.Run(ctx))
}

func (s *SweeperTestSuite) TestRunWaitsWhenFullBatchIsHeld() {
	ctx, cancel := context.WithTimeout(s.T().Context(), 200*time.Millisecond)
	defer cancel()
	s.sweeper.SetLimitPerIteration(2)

	// все эскроу пачки удержаны: до истечения интервала повторного прохода быть не должно.
	s.mockService.EXPECT().DueForRelease(gomock.Any(), uint(2)).Return([]int64{1, 2}, nil).Times(1)
	s.mockService.EXPECT().Release(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)

	s.Require().NoError(s.sweeper.Run(ctx))
	s.InDelta(2, testutil.ToFloat64(s.metrics.EscrowHeld), 0)
}

func TestSweepResultHasMore(t *testing.T) {
	tests := []struct {
		name string
		res  sweepResult
		want bool
	}{
		{name: "full batch with releases", res: sweepResult{Due: 2, Released: 1}, want: true},
		{name: "full batch all held", res: sweepResult{Due: 2, Released: 0}, want: false},
		{name: "partial batch", res: sweepResult{Due: 1, Released: 1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.hasMore(2))
		})
	}
}
