// Package ownercheck answers "does this account belong to this name?" by
// racing bank adapters through the dispatcher, then records the verdict in
// metrics and the audit trail.
package ownercheck

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"namecheck/internal/audit"
	"namecheck/internal/ownercheck/metrics"
	"namecheck/internal/ownercheck/models"
	dErrors "namecheck/pkg/domain-errors"
	"namecheck/pkg/requestcontext"
)

// Verifier produces a verdict for one request.
type Verifier interface {
	Verify(ctx context.Context, req models.LookupRequest) models.Verdict
}

// AuditPublisher records verification events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	verifier Verifier
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(verifier Verifier, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	s := &Service{
		verifier: verifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check verifies that req.ClaimedName owns req.AccountNumber. Adapter
// failures are part of the verdict; only malformed requests return an error.
func (s *Service) Check(ctx context.Context, req models.LookupRequest) (models.Verdict, error) {
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.BankHint = strings.TrimSpace(req.BankHint)
	if req.AccountNumber == "" || req.BankHint == "" || strings.TrimSpace(req.ClaimedName) == "" {
		return models.Verdict{}, dErrors.New(dErrors.CodeValidation, "account_number, bank_name and account_name are required")
	}

	start := time.Now()
	verdict := s.verifier.Verify(ctx, req)
	elapsed := time.Since(start)

	s.metrics.ObserveVerdict(verdict, elapsed)
	s.logger.InfoContext(ctx, "bank name checked",
		"request_id", requestcontext.RequestID(ctx),
		"bank_hint", req.BankHint,
		"verdict", verdict.Label(),
		"source_bank", verdict.SourceBank,
		"attempted", verdict.Attempted,
		"duration_ms", elapsed.Milliseconds(),
	)
	s.emitAudit(ctx, req, verdict, elapsed)
	return verdict, nil
}

func (s *Service) emitAudit(ctx context.Context, req models.LookupRequest, v models.Verdict, elapsed time.Duration) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp:   requestcontext.Now(ctx),
		Action:      audit.ActionNameVerified,
		RequestID:   requestcontext.RequestID(ctx),
		AccountHash: audit.HashAccount(req.AccountNumber),
		BankHint:    req.BankHint,
		Verdict:     v.Label(),
		SourceBank:  v.SourceBank,
		Attempted:   v.Attempted,
		Duration:    elapsed,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
