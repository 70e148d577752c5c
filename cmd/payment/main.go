// Package main запускает HTTP-сервер сервиса оплат.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients/loyalty"
	"github.com/mmeshcher/hotel-reservation-system/internal/clients/reservation"
	"github.com/mmeshcher/hotel-reservation-system/internal/config"
	"github.com/mmeshcher/hotel-reservation-system/internal/handler"
	"github.com/mmeshcher/hotel-reservation-system/internal/idempotency"
	"github.com/mmeshcher/hotel-reservation-system/internal/middleware"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository/memstore"
	"github.com/mmeshcher/hotel-reservation-system/internal/service"
	"github.com/mmeshcher/hotel-reservation-system/internal/telemetry"
)

const serviceName = "payment"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse("localhost:8060")
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		sugar.Warnw("tracing disabled", "error", err.Error())
	}
	defer shutdownTracing(context.Background())

	var store service.PaymentStore
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, repository.SchemaPayment)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		store = repo
	} else {
		sugar.Warn("DATABASE_URI is empty, using in-memory storage")
		store = memstore.NewPaymentStore()
	}

	var keys middleware.KeyStore
	if cfg.RedisAddress != "" {
		keyStore, err := idempotency.Connect(ctx, cfg.RedisAddress, cfg.IdempotencyTTL)
		if err != nil {
			sugar.Warnw("idempotency keys disabled", "error", err.Error())
		} else {
			defer keyStore.Close()
			keys = keyStore
		}
	}

	svc := service.NewPaymentService(
		store,
		reservation.NewClient(cfg.ReservationServiceAddress, cfg.UpstreamTimeout),
		loyalty.NewClient(cfg.LoyaltyServiceAddress, cfg.UpstreamTimeout),
	)
	defer svc.Close()

	h := handler.NewPaymentHandler(svc, logger, keys)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting payment server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
