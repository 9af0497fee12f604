package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyeonu91/schoolreserve/config"
	"github.com/hyeonu91/schoolreserve/internal/email"
	"github.com/hyeonu91/schoolreserve/internal/kafka"
	"github.com/hyeonu91/schoolreserve/internal/repository"
	"github.com/hyeonu91/schoolreserve/internal/service/reserve"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	reserveRepo := repository.NewReserveRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	reserveService := reserve.NewReserveService(
		reserveRepo,
		userRepo,
		nil,
		producer,
		cfg.Kafka.ReserveTopic,
		0,
		reserve.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Warn().Err(err).Msg("consumer stopped")
		}
	}()

	// Daily sweep of completed reservations whose end date has passed.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Worker.ExpireCron, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		expired, err := reserveService.ExpireReserves(sweepCtx)
		if err != nil {
			log.Error().Err(err).Msg("expire reserves")
			return
		}
		if len(expired) > 0 {
			log.Info().Int("count", len(expired)).Msg("expired reserves")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Worker.ExpireCron).Msg("invalid expire cron spec")
	}
	scheduler.Start()
	defer scheduler.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutting down")
}
