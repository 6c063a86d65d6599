package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/app"
	"github.com/AGmitmanipal/BACKEND/internal/auth"
	"github.com/AGmitmanipal/BACKEND/internal/clock"
	"github.com/AGmitmanipal/BACKEND/internal/config"
	"github.com/AGmitmanipal/BACKEND/internal/ratelimit"
	"github.com/AGmitmanipal/BACKEND/internal/storage/postgres"
	zonecache "github.com/AGmitmanipal/BACKEND/internal/storage/redis"
	transporthttp "github.com/AGmitmanipal/BACKEND/internal/transport/http"
	"github.com/AGmitmanipal/BACKEND/migrations"
	"github.com/aws/aws-xray-sdk-go/xray"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load(logger)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.EnableTracing {
		if err := configureTracing(); err != nil {
			log.Fatalf("configure tracing: %v", err)
		}
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := postgres.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pool.Close()

	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()
	reservationRepo := postgres.NewReservationRepository(pool, postgres.WithTxAttempts(cfg.TxMaxAttempts))
	zoneRepo := postgres.NewZoneRepository(pool)

	health := []transporthttp.Pinger{pool}
	var queryOpts []app.QueryServiceOption
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		cache := zonecache.NewZoneNameCache(rdb, zonecache.WithTTL(cfg.ZoneCacheTTL))
		queryOpts = append(queryOpts, app.WithZoneNameCache(cache))
		health = append(health, cache)
	}

	var verifier transporthttp.IdentityVerifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewTokenVerifier(cfg.JWTSecret)
	}

	limiter := ratelimit.NewStore(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartJanitor(stopCtx)

	handler := transporthttp.NewHandler(transporthttp.Dependencies{
		Admission:    app.NewAdmissionService(reservationRepo, clk),
		Reservations: app.NewReservationQueryService(reservationRepo, zoneRepo, logger, queryOpts...),
		Zones:        app.NewZoneService(zoneRepo),
		Verifier:     verifier,
		Limiter:      limiter,
		Health:       health,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	sweeperDone := make(chan struct{})
	if cfg.SweeperEnabled {
		sweeper := app.NewExpirySweeper(reservationRepo, clk, logger,
			app.WithSweepInterval(cfg.SweepInterval),
			app.WithSweepTimeout(cfg.SweepTimeout),
			app.WithTracing(cfg.EnableTracing),
		)
		go func() {
			defer close(sweeperDone)
			sweeper.Run(stopCtx)
		}()
	} else {
		logger.Printf("WARN: expiry sweeper disabled")
		close(sweeperDone)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
		stop()
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	<-sweeperDone
	log.Printf("server stopped")
}

// configureTracing sets the context-missing strategy before the recorder reads
// its settings, falling back to the SDK defaults if the versioned config fails.
func configureTracing() error {
	if err := os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR"); err != nil {
		return fmt.Errorf("set context missing strategy: %w", err)
	}
	if err := xray.Configure(xray.Config{ServiceVersion: "1.0.0"}); err != nil {
		log.Printf("Failed to configure X-Ray: %v", err)
		if configErr := xray.Configure(xray.Config{}); configErr != nil {
			return fmt.Errorf("configure default x-ray settings: %w", configErr)
		}
	}
	return nil
}
