package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safestake/registry/internal/attest"
	"github.com/safestake/registry/internal/auth"
	"github.com/safestake/registry/internal/handler"
	"github.com/safestake/registry/internal/infra"
	"github.com/safestake/registry/internal/registry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("registry server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	verifier, err := attest.NewVerifier(cfg.AttestorPublicKey)
	if err != nil {
		return fmt.Errorf("load attestor public key: %w", err)
	}

	tokenExpiry, err := time.ParseDuration(cfg.PlatformTokenExpiry)
	if err != nil {
		return fmt.Errorf("parse platform token expiry: %w", err)
	}
	tokenMgr := auth.NewTokenManager(cfg.JWTSecret, tokenExpiry)
	keySet, err := auth.ParseKeySet(cfg.PlatformKeys)
	if err != nil {
		return fmt.Errorf("parse platform keys: %w", err)
	}

	store := registry.NewPostgresStore(pool)
	engine := registry.NewEngine(store, verifier)
	metrics := infra.NewMetrics(prometheus.DefaultRegisterer)

	registryHandler := handler.NewRegistryHandler(engine, metrics)
	tokenHandler := handler.NewTokenHandler(keySet, tokenMgr)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.JSONContentType)

	// Unauthenticated surface
	r.Get("/health", handler.HealthHandler(pool))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", tokenHandler.IssueToken)

	// Platform-authenticated registry operations
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticatePlatform(tokenMgr))

		r.Route("/v1/accounts/{accountID}", func(r chi.Router) {
			r.Get("/", registryHandler.GetRecord)
			r.Post("/register", registryHandler.Register)
			r.Put("/limits", registryHandler.SetLimits)
			r.Get("/eligibility", registryHandler.CheckEligibility)
			r.Post("/transactions", registryHandler.RecordTransaction)
			r.Post("/exclusion", registryHandler.SelfExclude)
			r.Post("/cooldown", registryHandler.RequestCooldown)
		})
	})

	addr := fmt.Sprintf(":%d", cfg.RegistryPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("registry server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
