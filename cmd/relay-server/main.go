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
	"github.com/safestake/registry/internal/handler"
	"github.com/safestake/registry/internal/infra"
	"github.com/safestake/registry/internal/relay"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("relay server failed", "error", err)
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

	signer, err := attest.NewSigner(cfg.AttestorSeed)
	if err != nil {
		return fmt.Errorf("load attestor seed: %w", err)
	}
	logger.Info("attestor key loaded", "public_key", signer.PublicKeyHex())

	svc := relay.NewService(cfg.ProofVerifierURL, signer, logger)
	metrics := infra.NewMetrics(prometheus.DefaultRegisterer)
	relayHandler := handler.NewRelayHandler(svc, metrics)

	r := chi.NewRouter()
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(nil))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/attestations", relayHandler.CreateAttestation)

	addr := fmt.Sprintf(":%d", cfg.RelayPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay server starting", "addr", addr)
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
