package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyeonu91/schoolreserve/config"
	"github.com/hyeonu91/schoolreserve/internal/bootstrap"
	"github.com/hyeonu91/schoolreserve/internal/cache"
	"github.com/hyeonu91/schoolreserve/internal/kafka"
	"github.com/hyeonu91/schoolreserve/internal/repository"
	"github.com/hyeonu91/schoolreserve/internal/service/payment"
	"github.com/hyeonu91/schoolreserve/internal/service/reserve"
	"github.com/hyeonu91/schoolreserve/internal/service/school"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Reserve.SchoolsCacheTTLSecond)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	reserveRepo := repository.NewReserveRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	schoolRepo := repository.NewSchoolRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	reserveService := reserve.NewReserveService(
		reserveRepo,
		userRepo,
		redisCache,
		producer,
		cfg.Kafka.ReserveTopic,
		time.Duration(cfg.Reserve.SlotLockTTLSeconds)*time.Second,
		reserve.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	paymentService := payment.NewPaymentService(paymentRepo, reserveRepo, producer, cfg.Kafka.ReserveTopic)
	schoolService := school.NewSchoolService(schoolRepo, redisCache)

	if err := bootstrap.Run(ctx, cfg, reserveService, paymentService, schoolService); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
