// Package dispatcher races bank adapters against a verification request.
//
// A request first goes to a random subset of adapters. The first decisive
// answer (match or mismatch) wins. The first unavailable answer, or the end of
// the round budget, launches every adapter not yet tried with a fresh budget.
// Calls still pending from the first round keep being listened to. Each
// adapter is queried at most once per request, so a request ends within two
// round budgets.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/names"
	"namecheck/internal/ownercheck/providers"
)

const (
	DefaultSubsetSize   = 2
	DefaultRoundTimeout = 6 * time.Second

	// MessageTimeout is reported when the last round ran out of time.
	MessageTimeout = "timeout"
	// FailureNoAdapters is reported when nothing could be attempted.
	FailureNoAdapters = "no bank adapters configured"
)

// Shuffler permutes n elements through swap. math/rand/v2.Shuffle fits.
type Shuffler func(n int, swap func(i, j int))

// Observer receives dispatcher events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveAdapterResult(bank string, outcome models.Outcome, elapsed time.Duration)
	ObserveFallback(trigger string)
	ObserveBreakerChange(bank string, open bool)
}

// Dispatcher is safe for concurrent use. The registry must not change after
// the dispatcher is built.
type Dispatcher struct {
	registry     *providers.Registry
	subsetSize   int
	roundTimeout time.Duration
	poolSize     int
	pool         *semaphore.Weighted
	shuffle      Shuffler
	logger       *slog.Logger
	tracer       trace.Tracer
	observer     Observer
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithSubsetSize sets how many adapters the first round queries.
func WithSubsetSize(k int) Option {
	return func(d *Dispatcher) {
		if k > 0 {
			d.subsetSize = k
		}
	}
}

// WithRoundTimeout sets the budget of each round.
func WithRoundTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.roundTimeout = t
		}
	}
}

// WithWorkerPoolSize caps concurrent adapter calls across all requests.
// Values below the subset size are raised to it.
func WithWorkerPoolSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.poolSize = n
		}
	}
}

func WithShuffler(s Shuffler) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.shuffle = s
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

func New(registry *providers.Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("provider registry is required")
	}
	d := &Dispatcher{
		registry:     registry,
		subsetSize:   DefaultSubsetSize,
		roundTimeout: DefaultRoundTimeout,
		shuffle:      rand.Shuffle,
		logger:       slog.Default(),
		tracer:       otel.Tracer("namecheck/ownercheck/dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.poolSize == 0 {
		d.poolSize = 2 * registry.Len()
	}
	d.poolSize = max(d.poolSize, d.subsetSize)
	d.pool = semaphore.NewWeighted(int64(d.poolSize))
	return d, nil
}

// PoolSize reports the worker pool capacity.
func (d *Dispatcher) PoolSize() int {
	return d.poolSize
}

type envelope struct {
	result  models.OwnerResult
	elapsed time.Duration
}

// Verify answers one request. It never returns an error: adapter failures
// and timeouts are part of the verdict.
func (d *Dispatcher) Verify(ctx context.Context, req models.LookupRequest) models.Verdict {
	all := d.registry.All()
	if len(all) == 0 {
		return models.Verdict{Failure: FailureNoAdapters}
	}

	ctx, span := d.tracer.Start(ctx, "ownercheck.verify",
		trace.WithAttributes(attribute.String("bank_hint", req.BankHint)),
	)
	defer span.End()

	// Abandoned calls see cancellation once a verdict exists.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan envelope, len(all))
	attempted := make(map[string]bool, len(all))
	pending := make(map[string]bool, len(all))
	var order []string

	launch := func(round int, batch []providers.Provider) {
		ids := make([]string, 0, len(batch))
		for _, p := range batch {
			attempted[p.ID()] = true
			pending[p.ID()] = true
			order = append(order, p.ID())
			ids = append(ids, p.ID())
			go d.invoke(ctx, p, req, results)
		}
		span.AddEvent("round", trace.WithAttributes(
			attribute.Int("round", round),
			attribute.StringSlice("banks", ids),
		))
	}
	finish := func(v models.Verdict) models.Verdict {
		v.Attempted = append([]string(nil), order...)
		span.SetAttributes(attribute.String("verdict", v.Label()))
		return v
	}
	// fallback launches the untried adapters and reports whether any exist.
	fallback := func(trigger string) bool {
		rest := make([]providers.Provider, 0, len(all))
		for _, p := range all {
			if !attempted[p.ID()] {
				rest = append(rest, p)
			}
		}
		if len(rest) == 0 {
			return false
		}
		if d.observer != nil {
			d.observer.ObserveFallback(trigger)
		}
		d.logger.InfoContext(ctx, "verification fallback round",
			"trigger", trigger,
			"adapters", len(rest),
		)
		launch(2, rest)
		return true
	}

	launch(1, d.firstRound())
	timer := time.NewTimer(d.roundTimeout)
	defer timer.Stop()
	round := 1

	for {
		select {
		case env := <-results:
			res := env.result
			delete(pending, res.Bank)
			d.record(res, env.elapsed)

			if res.Decisive() {
				return finish(verdictFrom(res))
			}
			if round == 1 {
				round = 2
				if fallback("unavailable") {
					timer.Reset(d.roundTimeout)
				}
			}
			if len(pending) == 0 {
				return finish(models.Verdict{})
			}

		case <-timer.C:
			d.expirePending(pending)
			if round == 1 {
				round = 2
				if fallback("timeout") {
					timer.Reset(d.roundTimeout)
					continue
				}
			}
			span.SetStatus(codes.Error, "round budget exhausted")
			return finish(models.Verdict{Message: MessageTimeout})

		case <-ctx.Done():
			return finish(models.Verdict{Message: MessageTimeout})
		}
	}
}

// firstRound draws the first-round subset, preferring adapters whose
// circuit is closed.
func (d *Dispatcher) firstRound() []providers.Provider {
	healthy, degraded := d.registry.Healthy()
	d.shuffle(len(healthy), func(i, j int) { healthy[i], healthy[j] = healthy[j], healthy[i] })
	d.shuffle(len(degraded), func(i, j int) { degraded[i], degraded[j] = degraded[j], degraded[i] })

	out := append(healthy, degraded...)
	if len(out) > d.subsetSize {
		out = out[:d.subsetSize]
	}
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, p providers.Provider, req models.LookupRequest, out chan<- envelope) {
	start := time.Now()
	res := models.Unavailable(p.ID(), "not started")
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "bank adapter panicked",
				"bank", p.ID(),
				"panic", fmt.Sprint(r),
			)
			res = models.Unavailable(p.ID(), "adapter panic")
		}
		if res.Bank == "" {
			res.Bank = p.ID()
		}
		out <- envelope{result: res, elapsed: time.Since(start)}
	}()

	if err := d.pool.Acquire(ctx, 1); err != nil {
		res = models.Unavailable(p.ID(), "worker pool unavailable")
		return
	}
	defer d.pool.Release(1)

	ctx, span := d.tracer.Start(ctx, "ownercheck.adapter",
		trace.WithAttributes(attribute.String("bank", p.ID())),
	)
	defer span.End()

	res = p.CheckOwnerName(ctx, req.AccountNumber, req.BankHint, req.ClaimedName)
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
}

func (d *Dispatcher) record(res models.OwnerResult, elapsed time.Duration) {
	change := d.registry.Observe(res)
	if d.observer == nil {
		return
	}
	d.observer.ObserveAdapterResult(res.Bank, res.Outcome, elapsed)
	if change.Opened || change.Closed {
		d.observer.ObserveBreakerChange(res.Bank, change.Opened)
	}
}

// expirePending counts adapters that missed the round budget as failures.
func (d *Dispatcher) expirePending(pending map[string]bool) {
	for bank := range pending {
		change := d.registry.Observe(models.Unavailable(bank, MessageTimeout))
		if d.observer != nil && (change.Opened || change.Closed) {
			d.observer.ObserveBreakerChange(bank, change.Opened)
		}
	}
}

func verdictFrom(res models.OwnerResult) models.Verdict {
	if res.Outcome == models.OutcomeMatch {
		return models.Verdict{Matched: true, SourceBank: res.Bank}
	}
	return models.Verdict{TrueName: names.Compact(res.ActualName), SourceBank: res.Bank}
}
