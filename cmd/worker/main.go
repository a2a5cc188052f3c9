package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/email"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/logger"
	"github.com/Domenick1991/tourbooking/internal/notify"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/Domenick1991/tourbooking/internal/tasks"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	kafkaGo "github.com/segmentio/kafka-go"
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

	sender := email.NewSender(cfg.SMTP)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeBookingEvent(msg)
			if err != nil {
				logg.Warn("skip undecodable booking event", zap.Int64("offset", msg.Offset), zap.Error(err))
				return nil
			}
			if err := sender.SendBookingEvent(ctx, event); err != nil {
				logg.Error("booking event email failed",
					zap.String("type", event.Type), zap.Int64("booking_id", event.BookingID), zap.Error(err))
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logg.Error("booking event consumer stopped", zap.Error(err))
		}
	}()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: cfg.Worker.EmailConcurrency,
			Queues:      map[string]int{tasks.QueueEmail: 1},
		},
	)
	mux := asynq.NewServeMux()
	tasks.NewHandler(sender, logg).Register(mux)
	if err := srv.Start(mux); err != nil {
		logg.Fatal("start task server", zap.Error(err))
	}
	defer srv.Shutdown()

	retention := notify.NewRetention(repository.NewNotificationRepository(pool), cfg.Worker.NotificationRetention, logg)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.NotificationSweepCron, func() {
		_, _ = retention.Sweep(ctx)
	}); err != nil {
		logg.Fatal("schedule notification sweep", zap.String("schedule", cfg.Worker.NotificationSweepCron), zap.Error(err))
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	logg.Info("worker started",
		zap.String("topic", cfg.Kafka.BookingEventsTopic),
		zap.String("sweep", cfg.Worker.NotificationSweepCron))

	<-ctx.Done()
	logg.Info("shutting down worker")
}
