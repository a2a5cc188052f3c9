package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/Domenick1991/tourbooking/api"
	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/auth"
	"github.com/Domenick1991/tourbooking/internal/bootstrap"
	"github.com/Domenick1991/tourbooking/internal/cache"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/logger"
	"github.com/Domenick1991/tourbooking/internal/notify"
	"github.com/Domenick1991/tourbooking/internal/realtime"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/Domenick1991/tourbooking/internal/service/account"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/Domenick1991/tourbooking/internal/service/dashboard"
	"github.com/Domenick1991/tourbooking/internal/service/notifications"
	"github.com/Domenick1991/tourbooking/internal/service/tours"
	"github.com/Domenick1991/tourbooking/internal/tasks"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := repository.RunMigrations(sqlDB, cfg.Database.MigrationsDir); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.ToursCacheTTL(), cfg.Booking.DashboardCacheTTL())

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic, logg)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logg.Warn("kafka unreachable, booking events will be dropped until it recovers", zap.Error(err))
	}

	hub, closeBroker, err := newHub(cfg.Realtime, redisClient, logg)
	if err != nil {
		logg.Fatal("init realtime hub", zap.Error(err))
	}
	defer closeBroker()
	go func() {
		if err := hub.Run(ctx); err != nil {
			logg.Error("realtime relay stopped", zap.Error(err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer asynqClient.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userRepo := repository.NewUserRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(sqlx.NewDb(sqlDB, "pgx"))

	dispatcher := notify.NewDispatcher(notificationRepo, userRepo, hub, logg)

	bookingService := booking.NewBookingService(
		bookingRepo,
		tourRepo,
		userRepo,
		repository.NewTransactor(pool),
		dispatcher,
		logg,
		booking.WithEventPublisher(producer),
	)
	accountService := account.NewAccountService(userRepo, tokens, tasks.NewEnqueuer(asynqClient), cfg.Auth, logg)
	tourService := tours.NewTourService(tourRepo, redisCache, logg)
	notificationService := notifications.NewNotificationService(notificationRepo)
	dashboardService := dashboard.NewDashboardService(dashboardRepo, redisCache, logg)

	router := api.NewRouter(cfg.HTTP, logg, tokens, api.Handlers{
		Auth:          api.NewAuthHandler(accountService),
		Tours:         api.NewTourHandler(tourService),
		Bookings:      api.NewBookingHandler(bookingService),
		Notifications: api.NewNotificationHandler(notificationService),
		Dashboard:     api.NewDashboardHandler(dashboardService),
	})

	wsHandler := realtime.NewHandler(hub, tokens, logg, realtime.HandlerOptions{
		SendBuffer:  cfg.Realtime.SendBuffer,
		CheckOrigin: originChecker(cfg),
	})

	err = bootstrap.Run(ctx, cfg, bootstrap.Handlers{
		API:       router,
		WebSocket: wsHandler,
		Check: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
			return redisCache.Ping(ctx)
		},
	}, logg)
	if err != nil {
		logg.Fatal("server error", zap.Error(err))
	}
}

func newHub(cfg config.RealtimeConfig, redisClient *redis.Client, logg *zap.Logger) (*realtime.Hub, func(), error) {
	registry := realtime.NewMemoryRegistry()
	switch cfg.Broker {
	case "redis":
		broker := realtime.NewRedisBroker(redisClient, cfg.Channel, logg)
		return realtime.NewHub(registry, logg, realtime.WithBroker(broker)), func() { _ = broker.Close() }, nil
	case "nats":
		broker, err := realtime.NewNATSBroker(cfg.NATSURL, cfg.Channel, logg)
		if err != nil {
			return nil, nil, err
		}
		return realtime.NewHub(registry, logg, realtime.WithBroker(broker)), func() { _ = broker.Close() }, nil
	default:
		return realtime.NewHub(registry, logg), func() {}, nil
	}
}

// originChecker admits the configured CORS origins. Requests without an
// Origin header are not browsers and are let through.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	if cfg.Realtime.AllowOrigins {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(cfg.HTTP.AllowedOrigins, origin)
	}
}
