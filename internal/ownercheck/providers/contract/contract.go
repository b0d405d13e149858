// Package contract holds reusable checks every bank adapter must pass.
package contract

import (
	"context"
	"testing"
	"time"

	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/providers"
)

// ContractTest is one CheckOwnerName call and its expected outcome.
type ContractTest struct {
	Name            string
	Provider        providers.Provider
	Request         models.LookupRequest
	ExpectedOutcome models.Outcome
	ValidateFunc    func(res models.OwnerResult) error
}

// ContractSuite is a collection of contract tests for one adapter.
type ContractSuite struct {
	ProviderID string
	// Timeout bounds each call. Zero means five seconds.
	Timeout time.Duration
	Tests   []ContractTest
}

// Run executes all contract tests in the suite.
func (s *ContractSuite) Run(t *testing.T) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if test.Provider.ID() != s.ProviderID {
				t.Fatalf("expected provider ID %s, got %s", s.ProviderID, test.Provider.ID())
			}

			res := test.Provider.CheckOwnerName(ctx, test.Request.AccountNumber, test.Request.BankHint, test.Request.ClaimedName)

			if res.Bank != s.ProviderID {
				t.Errorf("result attributed to %q, want %q", res.Bank, s.ProviderID)
			}
			if res.Outcome != test.ExpectedOutcome {
				t.Errorf("expected outcome %s, got %s (reason %q)", test.ExpectedOutcome, res.Outcome, res.Reason)
			}

			switch res.Outcome {
			case models.OutcomeMatch:
				if res.ActualName != "" || res.Reason != "" {
					t.Errorf("match must not carry a name or reason: %+v", res)
				}
			case models.OutcomeMismatch:
				if res.ActualName == "" {
					t.Error("mismatch must carry the remote owner name")
				}
			case models.OutcomeUnavailable:
				if res.Reason == "" {
					t.Error("unavailable must carry a reason")
				}
			default:
				t.Errorf("unknown outcome %q", res.Outcome)
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(res); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// CancellationTest checks that an adapter gives up promptly once its context
// is cancelled and still reports Unavailable instead of hanging.
type CancellationTest struct {
	Provider providers.Provider
	Request  models.LookupRequest
	// Within is the longest acceptable return delay after cancellation.
	Within time.Duration
}

func (ct *CancellationTest) Run(t *testing.T) {
	within := ct.Within
	if within == 0 {
		within = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan models.OwnerResult, 1)
	go func() {
		done <- ct.Provider.CheckOwnerName(ctx, ct.Request.AccountNumber, ct.Request.BankHint, ct.Request.ClaimedName)
	}()

	select {
	case res := <-done:
		if res.Outcome != models.OutcomeUnavailable {
			t.Errorf("cancelled call should be unavailable, got %s", res.Outcome)
		}
	case <-time.After(within):
		t.Fatalf("provider %s ignored cancellation for %s", ct.Provider.ID(), within)
	}
}
