package ownercheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"namecheck/internal/ownercheck/bankdir"
	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/providers"
	"namecheck/internal/ownercheck/providers/acb"
	"namecheck/internal/ownercheck/providers/session"
	"namecheck/internal/ownercheck/providers/techcombank"
	"namecheck/pkg/platform/circuit"
)

// BankAccount is the login material of one configured adapter.
type BankAccount struct {
	Bank          string
	Username      string
	Password      string
	AccountNumber string
	// Proxy is an optional "host:port[:user:pass]" SOCKS5 handle.
	Proxy string
	// BaseURL overrides the bank API endpoint.
	BaseURL string
	// IdentityURL overrides the login endpoint of browser-style banks.
	IdentityURL string
}

// AdapterSettings apply to every adapter.
type AdapterSettings struct {
	Freshness   time.Duration
	MaxAttempts int
	// RateLimit caps outbound requests per second per adapter. Zero disables it.
	RateLimit   float64
	HTTPTimeout time.Duration
	Breaker     []circuit.Option
}

// RegistryDeps are shared by every adapter built by BuildRegistry.
type RegistryDeps struct {
	Directory    *bankdir.Directory
	Store        session.Store
	Logger       *slog.Logger
	AuthObserver session.AuthObserver
}

// BuildRegistry builds one session adapter per account, restoring persisted
// sessions, and registers them in account order.
func BuildRegistry(ctx context.Context, accounts []BankAccount, settings AdapterSettings, deps RegistryDeps) (*providers.Registry, error) {
	if deps.Directory == nil {
		return nil, errors.New("bank directory is required")
	}
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	registry := providers.NewRegistry(settings.Breaker...)
	for _, acct := range accounts {
		adapter, err := buildAdapter(ctx, acct, settings, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", acct.Bank, err)
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
		deps.Logger.InfoContext(ctx, "bank adapter registered",
			"bank", adapter.ID(),
			"state", adapter.State().String(),
			"proxied", acct.Proxy != "",
		)
	}
	return registry, nil
}

func buildAdapter(ctx context.Context, acct BankAccount, settings AdapterSettings, deps RegistryDeps) (*session.Adapter, error) {
	if acct.Username == "" || acct.Password == "" || acct.AccountNumber == "" {
		return nil, errors.New("username, password and account number are required")
	}

	clientOpts := []providers.ClientOption{
		providers.WithTimeout(settings.HTTPTimeout),
		providers.WithRateLimit(settings.RateLimit),
	}
	if acct.Proxy != "" {
		clientOpts = append(clientOpts, providers.WithProxy(acct.Proxy))
	}
	client, err := providers.NewHTTPClient(clientOpts...)
	if err != nil {
		return nil, err
	}

	protocol, err := newProtocol(acct, client, deps.Directory)
	if err != nil {
		return nil, err
	}

	cred := models.Credential{
		BankID:        protocol.Bank(),
		Username:      acct.Username,
		Password:      acct.Password,
		AccountNumber: acct.AccountNumber,
		Proxy:         acct.Proxy,
	}
	return session.New(ctx, protocol, cred, deps.Store,
		session.WithLogger(deps.Logger),
		session.WithFreshness(settings.Freshness),
		session.WithMaxAttempts(settings.MaxAttempts),
		session.WithAuthObserver(deps.AuthObserver),
	)
}

func newProtocol(acct BankAccount, client *http.Client, dir *bankdir.Directory) (session.Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(acct.Bank)) {
	case "acb":
		var opts []acb.Option
		if acct.BaseURL != "" {
			opts = append(opts, acb.WithBaseURL(acct.BaseURL))
		}
		return acb.New(client, dir, opts...)
	case "techcombank", "tcb":
		var opts []techcombank.Option
		if acct.BaseURL != "" {
			opts = append(opts, techcombank.WithAPIBaseURL(acct.BaseURL))
		}
		if acct.IdentityURL != "" {
			opts = append(opts, techcombank.WithIdentityBaseURL(acct.IdentityURL))
		}
		return techcombank.New(client, dir, opts...)
	default:
		return nil, fmt.Errorf("unsupported bank %q", acct.Bank)
	}
}
