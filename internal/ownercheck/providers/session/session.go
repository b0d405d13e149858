// Package session implements the authenticated-session lifecycle shared by
// every bank adapter. A bank integration only supplies a Protocol; the
// Adapter owns the state machine, the per-adapter lock, persistence and the
// bounded lookup retry.
//
// States:
//
//	LoggedOut -> Authenticating -> Active
//	Active -> Stale            (freshness exceeded, token exp passed, remote 401)
//	Stale -> Authenticating
//	Authenticating -> Rejected (credentials refused; terminal)
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/names"
	"namecheck/internal/ownercheck/providers"
	"namecheck/pkg/platform/sentinel"
)

const (
	DefaultFreshness   = 300 * time.Second
	DefaultMaxAttempts = 5
)

// State is the adapter's session position.
type State int32

const (
	StateLoggedOut State = iota
	StateAuthenticating
	StateActive
	StateStale
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateStale:
		return "stale"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Store persists session records keyed by account number. Load returns
// sentinel.ErrNotFound when nothing is stored.
type Store interface {
	Load(ctx context.Context, accountNumber string) (*models.SessionState, error)
	Save(ctx context.Context, accountNumber string, state *models.SessionState) error
}

// Protocol is the bank-specific half of an adapter.
type Protocol interface {
	// Bank returns the adapter id.
	Bank() string
	// Authenticate runs the full login and writes tokens (and cookies, when
	// the bank uses them) into state.
	Authenticate(ctx context.Context, cred models.Credential, state *models.SessionState) error
	// Lookup returns the raw owner name. It must return a ProviderError with
	// ErrorSessionExpired when the bank rejects the token.
	Lookup(ctx context.Context, state *models.SessionState, accountNumber, bankHint string) (string, error)
}

// Refresher is implemented by protocols that support a refresh-token grant.
type Refresher interface {
	Refresh(ctx context.Context, state *models.SessionState) error
}

// Restorer is implemented by protocols that keep client-side state (such as
// a cookie jar) that must be seeded from a persisted session.
type Restorer interface {
	Restore(state *models.SessionState)
}

// AuthObserver receives one call per authentication attempt.
type AuthObserver interface {
	ObserveAuthentication(bank, method, outcome string)
}

// Adapter is a Protocol wrapped in the shared session state machine. It
// implements providers.Provider.
type Adapter struct {
	protocol    Protocol
	cred        models.Credential
	store       Store
	logger      *slog.Logger
	observer    AuthObserver
	freshness   time.Duration
	maxAttempts int
	now         func() time.Time

	// lock is a 1-slot semaphore so waiting honours the caller's context.
	lock  chan struct{}
	state atomic.Int32

	// guarded by lock
	session *models.SessionState
}

var _ providers.Provider = (*Adapter)(nil)

type Option func(*Adapter)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithFreshness sets how long a token is trusted after issuance.
func WithFreshness(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.freshness = d
		}
	}
}

// WithMaxAttempts caps lookup attempts per call.
func WithMaxAttempts(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

func WithAuthObserver(o AuthObserver) Option {
	return func(a *Adapter) {
		a.observer = o
	}
}

// New builds an adapter and restores any persisted session for the
// credential's account number.
func New(ctx context.Context, protocol Protocol, cred models.Credential, store Store, opts ...Option) (*Adapter, error) {
	if protocol == nil {
		return nil, errors.New("session protocol is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if cred.AccountNumber == "" {
		return nil, fmt.Errorf("%s: account number is required", protocol.Bank())
	}

	a := &Adapter{
		protocol:    protocol,
		cred:        cred,
		store:       store,
		logger:      slog.Default(),
		freshness:   DefaultFreshness,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		lock:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.restore(ctx)
	return a, nil
}

func (a *Adapter) ID() string {
	return a.protocol.Bank()
}

// State reports the current session position without waiting for the lock.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

// Snapshot returns a copy of the current session record.
func (a *Adapter) Snapshot(ctx context.Context) (*models.SessionState, error) {
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}
	defer a.release()
	return a.session.Clone(), nil
}

// Login forces a full authentication.
func (a *Adapter) Login(ctx context.Context) error {
	if err := a.acquire(ctx); err != nil {
		return err
	}
	defer a.release()
	return a.authenticateLocked(ctx, false)
}

func (a *Adapter) LookupOwnerName(ctx context.Context, accountNumber, bankHint string) (string, error) {
	if err := a.acquire(ctx); err != nil {
		return "", err
	}
	defer a.release()

	policy := providers.RetryPolicy{
		MaxAttempts: a.maxAttempts,
		OnRetry: func(ctx context.Context, attempt int, cause error) error {
			if providers.GetCategory(cause) != providers.ErrorSessionExpired {
				return nil
			}
			a.logger.InfoContext(ctx, "bank session expired, re-authenticating",
				"bank", a.ID(),
				"attempt", attempt,
			)
			a.setState(StateStale)
			return a.authenticateLocked(ctx, true)
		},
	}
	return providers.Retry(ctx, policy, func(ctx context.Context) (string, error) {
		if err := a.ensureFreshLocked(ctx); err != nil {
			return "", err
		}
		name, err := a.protocol.Lookup(ctx, a.session, accountNumber, bankHint)
		if err != nil {
			return "", err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return "", providers.NewProviderError(providers.ErrorNotFound, a.ID(), "owner not returned", nil)
		}
		return name, nil
	})
}

func (a *Adapter) CheckOwnerName(ctx context.Context, accountNumber, bankHint, claimedName string) models.OwnerResult {
	actual, err := a.LookupOwnerName(ctx, accountNumber, bankHint)
	if err != nil {
		a.logger.WarnContext(ctx, "owner lookup unavailable",
			"bank", a.ID(),
			"category", providers.GetCategory(err),
			"error", err,
		)
		return models.Unavailable(a.ID(), providers.Reason(err))
	}
	if names.Equal(actual, claimedName) {
		return models.Match(a.ID())
	}
	return models.Mismatch(a.ID(), actual)
}

func (a *Adapter) acquire(ctx context.Context) error {
	select {
	case a.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return providers.NewProviderError(providers.ErrorTransient, a.ID(), "waiting for session lock", ctx.Err())
	}
}

func (a *Adapter) release() {
	<-a.lock
}

func (a *Adapter) setState(s State) {
	a.state.Store(int32(s))
}

func (a *Adapter) restore(ctx context.Context) {
	a.session = &models.SessionState{}
	a.setState(StateLoggedOut)

	stored, err := a.store.Load(ctx, a.cred.AccountNumber)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		a.logger.WarnContext(ctx, "failed to load bank session, starting logged out",
			"bank", a.ID(),
			"error", err,
		)
	case stored != nil:
		a.session = stored.Clone()
		if r, ok := a.protocol.(Restorer); ok {
			r.Restore(a.session)
		}
		if a.session.Complete() {
			if a.expired(a.now()) {
				a.setState(StateStale)
			} else {
				a.setState(StateActive)
			}
		}
	}

	a.session.Username = a.cred.Username
	a.session.Password = a.cred.Password
	a.session.AccountNumber = a.cred.AccountNumber
	if a.session.PendingTransfer == nil {
		a.session.PendingTransfer = []string{}
	}
}

// expired reports whether the current token is past its freshness window or
// its own exp claim.
func (a *Adapter) expired(now time.Time) bool {
	if !a.session.Complete() {
		return true
	}
	if a.session.Age(now) >= a.freshness {
		return true
	}
	if exp, ok := tokenExpiry(a.session.AuthToken); ok && !now.Before(exp) {
		return true
	}
	return false
}

func (a *Adapter) ensureFreshLocked(ctx context.Context) error {
	switch a.State() {
	case StateRejected:
		return providers.NewProviderError(providers.ErrorCredentialRejected, a.ID(), "credentials rejected", providers.ErrAdapterRejected)
	case StateActive:
		if !a.expired(a.now()) {
			return nil
		}
		a.setState(StateStale)
	}
	return a.authenticateLocked(ctx, true)
}

// authenticateLocked runs refresh (when allowed and possible) and then up to
// two full logins. Callers must hold the lock.
func (a *Adapter) authenticateLocked(ctx context.Context, allowRefresh bool) error {
	if a.State() == StateRejected {
		return providers.NewProviderError(providers.ErrorCredentialRejected, a.ID(), "credentials rejected", providers.ErrAdapterRejected)
	}
	a.setState(StateAuthenticating)

	if r, ok := a.protocol.(Refresher); ok && allowRefresh && a.session.RefreshToken != "" {
		next := a.session.Clone()
		err := r.Refresh(ctx, next)
		if err == nil {
			a.observe("refresh", "success")
			a.activateLocked(ctx, next, "refresh")
			return nil
		}
		a.observe("refresh", "failure")
		a.logger.InfoContext(ctx, "token refresh failed, falling back to login",
			"bank", a.ID(),
			"error", err,
		)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		next := a.session.Clone()
		next.AuthToken = ""
		next.IsLoggedIn = false
		err := a.protocol.Authenticate(ctx, a.cred, next)
		if err == nil {
			a.observe("login", "success")
			a.activateLocked(ctx, next, "login")
			return nil
		}
		lastErr = err

		if providers.GetCategory(err) == providers.ErrorCredentialRejected {
			a.observe("login", "rejected")
			a.setState(StateRejected)
			a.logger.ErrorContext(ctx, "bank rejected adapter credentials",
				"bank", a.ID(),
				"username", a.cred.Username,
			)
			return err
		}
		a.observe("login", "failure")
		a.logger.WarnContext(ctx, "bank login failed",
			"bank", a.ID(),
			"attempt", attempt,
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	a.setState(StateStale)
	// Not retryable: the lookup loop must not multiply login attempts.
	return &providers.ProviderError{
		Category:   providers.ErrorTransient,
		ProviderID: a.ID(),
		Message:    "authentication failed",
		Underlying: lastErr,
	}
}

func (a *Adapter) activateLocked(ctx context.Context, next *models.SessionState, method string) {
	next.IsLoggedIn = true
	next.TokenIssuedAt = a.now()
	a.session = next
	a.setState(StateActive)

	if err := a.store.Save(ctx, a.cred.AccountNumber, next.Clone()); err != nil {
		a.logger.WarnContext(ctx, "failed to persist bank session",
			"bank", a.ID(),
			"error", err,
		)
	}
	a.logger.InfoContext(ctx, "bank session authenticated",
		"bank", a.ID(),
		"method", method,
	)
}

func (a *Adapter) observe(method, outcome string) {
	if a.observer != nil {
		a.observer.ObserveAuthentication(a.ID(), method, outcome)
	}
}

// tokenExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque tokens report false.
func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
