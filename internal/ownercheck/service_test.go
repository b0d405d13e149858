package ownercheck

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"namecheck/internal/audit"
	"namecheck/internal/ownercheck/metrics"
	"namecheck/internal/ownercheck/mocks"
	"namecheck/internal/ownercheck/models"
	dErrors "namecheck/pkg/domain-errors"
	"namecheck/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	auditor  *mocks.MockAuditPublisher
	metrics  *metrics.Metrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	svc, err := NewService(s.verifier,
		WithAuditPublisher(s.auditor),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ServiceSuite) TestNewService() {
	svc, err := NewService(nil)
	s.Error(err)
	s.Nil(svc)
}

func (s *ServiceSuite) TestCheck() {
	req := models.LookupRequest{AccountNumber: " 0123456789 ", BankHint: "VCB", ClaimedName: "Nguyen Van A"}

	s.Run("match is recorded in metrics and audit", func() {
		now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), now)

		s.verifier.EXPECT().
			Verify(gomock.Any(), models.LookupRequest{AccountNumber: "0123456789", BankHint: "VCB", ClaimedName: "Nguyen Van A"}).
			Return(models.Verdict{Matched: true, SourceBank: "ACB", Attempted: []string{"ACB", "Techcombank"}})
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(audit.ActionNameVerified, e.Action)
			s.Equal("req-1", e.RequestID)
			s.Equal(now, e.Timestamp)
			s.Equal(audit.HashAccount("0123456789"), e.AccountHash)
			s.Equal("match", e.Verdict)
			s.Equal("ACB", e.SourceBank)
			s.Equal([]string{"ACB", "Techcombank"}, e.Attempted)
			return nil
		})

		v, err := s.service.Check(ctx, req)
		s.Require().NoError(err)
		s.True(v.Matched)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Verdicts.WithLabelValues("match")))
	})

	s.Run("audit failure does not fail the check", func() {
		s.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{Message: "timeout"})
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit buffer full"))

		v, err := s.service.Check(context.Background(), req)
		s.Require().NoError(err)
		s.Equal("timeout", v.Message)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Verdicts.WithLabelValues("timeout")))
	})

	s.Run("missing fields are rejected before dispatch", func() {
		for _, bad := range []models.LookupRequest{
			{BankHint: "VCB", ClaimedName: "A"},
			{AccountNumber: "1", ClaimedName: "A"},
			{AccountNumber: "1", BankHint: "VCB", ClaimedName: "   "},
		} {
			_, err := s.service.Check(context.Background(), bad)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	s.Run("works without metrics or audit", func() {
		svc, err := NewService(s.verifier)
		s.Require().NoError(err)
		s.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.Verdict{TrueName: "TRANTHIB", SourceBank: "ACB"})

		v, err := svc.Check(context.Background(), req)
		s.Require().NoError(err)
		s.Equal("TRANTHIB", v.TrueName)
	})
}
