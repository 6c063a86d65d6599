package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/app"
	"github.com/AGmitmanipal/BACKEND/internal/clock"
	"github.com/AGmitmanipal/BACKEND/internal/config"
	"github.com/AGmitmanipal/BACKEND/internal/storage/postgres"
	zonecache "github.com/AGmitmanipal/BACKEND/internal/storage/redis"
	transportamqp "github.com/AGmitmanipal/BACKEND/internal/transport/amqp"
	"github.com/AGmitmanipal/BACKEND/migrations"
	amqp091 "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	logger := log.Default()

	cfg, err := config.Load(logger)
	if err != nil {
		log.Fatalf("load config: %v", err)
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

	reservationRepo := postgres.NewReservationRepository(pool, postgres.WithTxAttempts(cfg.TxMaxAttempts))
	zoneRepo := postgres.NewZoneRepository(pool)

	var queryOpts []app.QueryServiceOption
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		queryOpts = append(queryOpts, app.WithZoneNameCache(zonecache.NewZoneNameCache(rdb, zonecache.WithTTL(cfg.ZoneCacheTTL))))
	}

	worker := transportamqp.NewWorker(
		app.NewAdmissionService(reservationRepo, clock.NewSystem()),
		app.NewReservationQueryService(reservationRepo, zoneRepo, logger, queryOpts...),
		logger,
	)

	conn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	msgs, err := transportamqp.Subscribe(ch, cfg.CommandQueue)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker listening on queue %s", cfg.CommandQueue)
	if err := worker.Serve(ctx, msgs, ch); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("worker stopped: %v", err)
		return
	}
	log.Printf("worker stopped")
}
