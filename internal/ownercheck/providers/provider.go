// Package providers defines the bank adapter contract, the adapter registry
// and the normalized failure taxonomy shared by every bank integration.
package providers

import (
	"context"
	"fmt"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/circuit"
)

// Provider is the interface every bank adapter implements.
type Provider interface {
	// ID returns the adapter name reported to callers, e.g. "ACB".
	ID() string

	// Login forces the authentication sequence.
	Login(ctx context.Context) error

	// LookupOwnerName returns the remote-reported owner of accountNumber at
	// the bank named by bankHint.
	LookupOwnerName(ctx context.Context, accountNumber, bankHint string) (string, error)

	// CheckOwnerName compares claimedName with the remote owner. Errors never
	// escape: they fold into an Unavailable result.
	CheckOwnerName(ctx context.Context, accountNumber, bankHint, claimedName string) models.OwnerResult
}

// Registry holds the configured adapters and a circuit breaker per adapter.
// It is populated at startup and read-only afterwards.
type Registry struct {
	order    []string
	byID     map[string]Provider
	breakers map[string]*circuit.Breaker
	opts     []circuit.Option
}

// NewRegistry creates an empty registry. Breaker options apply to every
// adapter registered later.
func NewRegistry(opts ...circuit.Option) *Registry {
	return &Registry{
		byID:     make(map[string]Provider),
		breakers: make(map[string]*circuit.Breaker),
		opts:     opts,
	}
}

// Register adds an adapter.
func (r *Registry) Register(p Provider) error {
	id := p.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.byID[id] = p
	r.breakers[id] = circuit.New(id, r.opts...)
	r.order = append(r.order, id)
	return nil
}

// Get retrieves an adapter by ID.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every adapter in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.order)
}

// Healthy partitions adapters by breaker state, preserving registration order.
func (r *Registry) Healthy() (healthy, degraded []Provider) {
	for _, id := range r.order {
		if r.breakers[id].IsOpen() {
			degraded = append(degraded, r.byID[id])
			continue
		}
		healthy = append(healthy, r.byID[id])
	}
	return healthy, degraded
}

// Observe feeds an adapter result into its breaker. Unavailable counts as a
// failure; decisive answers count as successes. The returned change reports
// whether this observation opened or closed the circuit.
func (r *Registry) Observe(res models.OwnerResult) circuit.StateChange {
	b, ok := r.breakers[res.Bank]
	if !ok {
		return circuit.StateChange{}
	}
	if res.Decisive() {
		_, change := b.RecordSuccess()
		return change
	}
	_, change := b.RecordFailure()
	return change
}

// BreakerState returns the circuit position of an adapter.
func (r *Registry) BreakerState(id string) circuit.State {
	if b, ok := r.breakers[id]; ok {
		return b.State()
	}
	return circuit.StateClosed
}
