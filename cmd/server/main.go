package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"namecheck/internal/ownercheck"
	"namecheck/internal/ownercheck/bankdir"
	"namecheck/internal/ownercheck/dispatcher"
	"namecheck/internal/ownercheck/handler"
	"namecheck/internal/ownercheck/metrics"
	"namecheck/internal/platform/config"
	"namecheck/internal/platform/httpserver"
	"namecheck/internal/platform/logger"
	"namecheck/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	dir, err := bankdir.Load(cfg.BankDirectoryPath)
	if err != nil {
		return err
	}

	sessions, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := ownercheck.BuildRegistry(ctx, bankAccounts(cfg.Banks), ownercheck.AdapterSettings{
		Freshness:   cfg.Session.Freshness,
		MaxAttempts: cfg.Session.MaxAttempts,
		RateLimit:   cfg.Session.RateLimit,
		HTTPTimeout: cfg.Session.HTTPTimeout,
		Breaker:     []circuit.Option{circuit.WithFailureThreshold(cfg.Dispatcher.BreakerThreshold)},
	}, ownercheck.RegistryDeps{
		Directory:    dir,
		Store:        sessions,
		Logger:       log,
		AuthObserver: m,
	})
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		log.Warn("no bank adapters configured, every check will fail")
	}

	disp, err := dispatcher.New(registry,
		dispatcher.WithSubsetSize(cfg.Dispatcher.SubsetSize),
		dispatcher.WithRoundTimeout(cfg.Dispatcher.RoundTimeout),
		dispatcher.WithWorkerPoolSize(cfg.Dispatcher.WorkerPoolSize),
		dispatcher.WithObserver(m),
		dispatcher.WithLogger(log),
	)
	if err != nil {
		return err
	}

	publisher, closeAudit, err := openAudit(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	svc, err := ownercheck.NewService(disp,
		ownercheck.WithMetrics(m),
		ownercheck.WithAuditPublisher(publisher),
		ownercheck.WithLogger(log),
	)
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(log, reg, handler.New(svc, log))
	// A verdict can take two full rounds.
	srv := httpserver.New(cfg.Addr, router, 2*cfg.Dispatcher.RoundTimeout+5*time.Second)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting namecheck",
			"addr", cfg.Addr,
			"adapters", registry.Len(),
			"subset_size", cfg.Dispatcher.SubsetSize,
			"round_timeout", cfg.Dispatcher.RoundTimeout.String(),
			"worker_pool", disp.PoolSize(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func bankAccounts(banks []config.BankConfig) []ownercheck.BankAccount {
	out := make([]ownercheck.BankAccount, 0, len(banks))
	for _, b := range banks {
		out = append(out, ownercheck.BankAccount{
			Bank:          b.Bank,
			Username:      b.Username,
			Password:      b.Password,
			AccountNumber: b.AccountNumber,
			Proxy:         b.Proxy,
			BaseURL:       b.BaseURL,
			IdentityURL:   b.IdentityURL,
		})
	}
	return out
}
