package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/internal/metrics"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/api/mocks"
	"github.com/fsdevblog/mmo-fulfillment/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type IntentsHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockCtrl          *gomock.Controller
	mockIntentService *mocks.MockIntentServicer
	mockHealth        *mocks.MockHealthChecker
}

func TestIntentsHandlerSuite(t *testing.T) {
	suite.Run(t, new(IntentsHandlerTestSuite))
}

func (s *IntentsHandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *IntentsHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockIntentService = mocks.NewMockIntentServicer(s.mockCtrl)
	s.mockHealth = mocks.NewMockHealthChecker(s.mockCtrl)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg := prometheus.NewRegistry()
	router, err := New(RouterArgs{
		Logger:        logger,
		IntentService: s.mockIntentService,
		Health:        s.mockHealth,
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
	})
	s.Require().NoError(err)
	s.router = router
}

func (s *IntentsHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *IntentsHandlerTestSuite) post(route string, body any) *http.Response {
	return testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + route,
		Body:   testutils.JSONBody(body),
	}, testutils.WithJSON())
}

func (s *IntentsHandlerTestSuite) acceptedKey(resp *http.Response) string {
	defer resp.Body.Close()
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)

	var body AcceptedResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body.DedupeKey
}

func (s *IntentsHandlerTestSuite) TestBuyPointsAccepted() {
	key := gofakeit.UUID()
	cost := int64(1000)

	s.mockIntentService.EXPECT().
		BuyPoints(gomock.Any(), domain.BuyPointsMessage{
			UserID:      7,
			PointsToBuy: 1000,
			CostCoins:   &cost,
			OTP:         "123456",
			DedupeKey:   key,
		}).
		Return(nil)

	got := s.acceptedKey(s.post(BuyPointsRoute, BuyPointsParams{
		UserID:      7,
		PointsToBuy: 1000,
		CostCoins:   &cost,
		OTP:         "123456",
		DedupeKey:   key,
	}))
	s.Equal(key, got)
}

func (s *IntentsHandlerTestSuite) TestBuyPointsGeneratesDedupeKey() {
	var published string
	s.mockIntentService.EXPECT().
		BuyPoints(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg domain.BuyPointsMessage) error {
			published = msg.DedupeKey
			return nil
		})

	got := s.acceptedKey(s.post(BuyPointsRoute, BuyPointsParams{UserID: 7, PointsToBuy: 10, OTP: "000111"}))

	s.NotEmpty(got)
	s.Equal(published, got)
}

func (s *IntentsHandlerTestSuite) TestBuyPointsRejectsBadOTP() {
	for _, otp := range []string{"", "12345", "1234567", "12a456"} {
		resp := s.post(BuyPointsRoute, BuyPointsParams{UserID: 7, PointsToBuy: 10, OTP: otp})
		resp.Body.Close()
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode, "otp %q", otp)
	}
}

func (s *IntentsHandlerTestSuite) TestPublishFailure() {
	s.mockIntentService.EXPECT().
		BuyPoints(gomock.Any(), gomock.Any()).
		Return(errors.New("nats: no responders available for request"))

	resp := s.post(BuyPointsRoute, BuyPointsParams{UserID: 7, PointsToBuy: 10, OTP: "123456"})
	defer resp.Body.Close()

	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *IntentsHandlerTestSuite) TestRegisterSellerAccepted() {
	desc := gofakeit.Company() + " " + gofakeit.Word()
	s.mockIntentService.EXPECT().
		RegisterSeller(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg domain.SellerRegistrationMessage) error {
			s.Equal(int64(11), msg.UserID)
			s.Equal("Dragon Store", msg.ShopName)
			s.Require().NotNil(msg.Description)
			s.Equal(desc, *msg.Description)
			return nil
		})

	s.acceptedKey(s.post(SellerRegistrationRoute, SellerRegistrationParams{
		UserID:      11,
		ShopName:    "Dragon Store",
		Description: &desc,
	}))
}

func (s *IntentsHandlerTestSuite) TestRegisterSellerShopNameOverBytes() {
	resp := s.post(SellerRegistrationRoute, SellerRegistrationParams{
		UserID:   11,
		ShopName: testutils.GenerateOverBytesUnderRunes(100),
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *IntentsHandlerTestSuite) TestCreateWithdrawalAccepted() {
	bank := "Vietcombank"
	s.mockIntentService.EXPECT().
		CreateWithdrawal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg domain.WithdrawalCreateMessage) error {
			s.Equal(int64(11), msg.SellerID)
			s.Equal(int64(3), msg.BankInfoID)
			s.Equal(int64(500000), msg.Amount)
			s.Require().NotNil(msg.BankName)
			s.Equal(bank, *msg.BankName)
			s.Nil(msg.Branch)
			return nil
		})

	s.acceptedKey(s.post(WithdrawalsRoute, WithdrawalParams{
		SellerID:   11,
		BankInfoID: 3,
		Amount:     500000,
		BankName:   &bank,
		OTP:        "654321",
	}))
}

func (s *IntentsHandlerTestSuite) TestCreateWithdrawalValidation() {
	for name, params := range map[string]WithdrawalParams{
		"zero amount":  {SellerID: 11, BankInfoID: 3, Amount: 0, OTP: "654321"},
		"no bank info": {SellerID: 11, Amount: 10, OTP: "654321"},
		"no otp":       {SellerID: 11, BankInfoID: 3, Amount: 10},
	} {
		s.Run(name, func() {
			resp := s.post(WithdrawalsRoute, params)
			defer resp.Body.Close()
			s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func (s *IntentsHandlerTestSuite) TestHealthAndMetrics() {
	gomock.InOrder(
		s.mockHealth.EXPECT().Ping(gomock.Any()).Return(nil),
		s.mockHealth.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	get := func(url string) *http.Response {
		return testutils.MakeRequest(testutils.RequestArgs{Router: s.router, Method: http.MethodGet, URL: url})
	}

	resp := get(HealthRoute)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = get(HealthRoute)
	resp.Body.Close()
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

	resp = get(MetricsRoute)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(raw), `mmo_fulfillment_http_requests_total{method="GET",path="/healthz",status="503"} 1`)
}
