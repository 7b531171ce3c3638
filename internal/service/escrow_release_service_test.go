package service

import (
	"testing"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type EscrowReleaseServiceTestSuite struct {
	fulfillmentSuite
	service *EscrowReleaseService
	escrow  domain.EscrowTransaction
}

func TestEscrowReleaseServiceSuite(t *testing.T) {
	suite.Run(t, new(EscrowReleaseServiceTestSuite))
}

func (s *EscrowReleaseServiceTestSuite) SetupTest() {
	s.fulfillmentSuite.SetupTest()
	service, err := NewEscrowReleaseService(s.mockUOW, s.args)
	s.Require().NoError(err)
	s.service = service
	s.escrow = domain.EscrowTransaction{
		ID:          300,
		CustomerID:  7,
		SellerID:    11,
		Amount:      200,
		Commission:  10,
		SellerShare: 190,
		Status:      domain.EscrowStatusEscrow,
	}
}

func (s *EscrowReleaseServiceTestSuite) TestDueForRelease() {
	s.escrowRepo.EXPECT().DueForRelease(gomock.Any(), s.now, uint(50)).Return([]int64{300, 301}, nil)

	ids, err := s.service.DueForRelease(s.T().Context(), 50)
	s.Require().NoError(err)
	s.Equal([]int64{300, 301}, ids)
}

func (s *EscrowReleaseServiceTestSuite) TestReleaseCreditsSeller() {
	s.escrowRepo.EXPECT().LockDue(gomock.Any(), s.escrow.ID, s.now).Return(&s.escrow, nil)
	s.complaintRepo.EXPECT().HasOpenForTransaction(gomock.Any(), s.escrow.ID).Return(false, nil)
	s.escrowRepo.EXPECT().MarkReleased(gomock.Any(), s.escrow.ID, s.now).Return(nil)
	s.userRepo.EXPECT().Credit(gomock.Any(), s.escrow.SellerID, int64(190)).Return(nil)
	s.expectNotify(s.escrow.SellerID, "Escrow released")

	released, err := s.service.Release(s.T().Context(), s.escrow.ID)
	s.Require().NoError(err)
	s.True(released)
}

func (s *EscrowReleaseServiceTestSuite) TestReleaseHeldByComplaint() {
	s.escrowRepo.EXPECT().LockDue(gomock.Any(), s.escrow.ID, s.now).Return(&s.escrow, nil)
	s.complaintRepo.EXPECT().HasOpenForTransaction(gomock.Any(), s.escrow.ID).Return(true, nil)

	released, err := s.service.Release(s.T().Context(), s.escrow.ID)
	s.Require().NoError(err)
	s.False(released)
}

func (s *EscrowReleaseServiceTestSuite) TestReleaseAlreadyTaken() {
	s.escrowRepo.EXPECT().LockDue(gomock.Any(), s.escrow.ID, s.now).Return(nil, domain.ErrRecordNotFound)

	released, err := s.service.Release(s.T().Context(), s.escrow.ID)
	s.Require().NoError(err)
	s.False(released)
}
