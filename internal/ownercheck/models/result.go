package models

// Outcome tags an OwnerResult.
type Outcome string

const (
	OutcomeMatch       Outcome = "match"
	OutcomeMismatch    Outcome = "mismatch"
	OutcomeUnavailable Outcome = "unavailable"
)

// OwnerResult is produced by exactly one adapter invocation and never mutated.
type OwnerResult struct {
	Outcome Outcome
	// Bank is the id of the adapter that produced the result.
	Bank string
	// ActualName is the remote-reported owner name, set on mismatch.
	ActualName string
	// Reason explains an unavailable result.
	Reason string
}

func Match(bank string) OwnerResult {
	return OwnerResult{Outcome: OutcomeMatch, Bank: bank}
}

func Mismatch(bank, actualName string) OwnerResult {
	return OwnerResult{Outcome: OutcomeMismatch, Bank: bank, ActualName: actualName}
}

func Unavailable(bank, reason string) OwnerResult {
	return OwnerResult{Outcome: OutcomeUnavailable, Bank: bank, Reason: reason}
}

// Decisive reports whether the result settles the verification.
func (r OwnerResult) Decisive() bool {
	return r.Outcome == OutcomeMatch || r.Outcome == OutcomeMismatch
}

// Verdict is the dispatcher's final answer for one request.
type Verdict struct {
	Matched bool
	// TrueName is the compact normalized owner name on a confirmed mismatch.
	TrueName   string
	SourceBank string
	// Message is "timeout" when the last round ran out of time.
	Message string
	// Failure is set when no adapter could be attempted at all.
	Failure string
	// Attempted lists adapter ids queried for this request, in launch order.
	Attempted []string
}

// Inconclusive reports whether the verdict is neither a match nor a confirmed mismatch.
func (v Verdict) Inconclusive() bool {
	return !v.Matched && v.TrueName == ""
}

// Label is a low-cardinality outcome name used by metrics and audit.
func (v Verdict) Label() string {
	switch {
	case v.Failure != "":
		return "failure"
	case v.Matched:
		return "match"
	case v.TrueName != "":
		return "mismatch"
	case v.Message != "":
		return "timeout"
	default:
		return "inconclusive"
	}
}
