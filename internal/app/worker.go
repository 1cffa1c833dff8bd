package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go-timetrack/internal/messaging/kafka"
	"go-timetrack/internal/messaging/kafka/producer"
	"go-timetrack/internal/session"
	"go-timetrack/internal/shared/clock"
	"go-timetrack/internal/shared/connection"

	"go.uber.org/zap"
)

const (
	defaultAutoCloseAt = "23:55"
	defaultAutoCloseTZ = "Asia/Kolkata"
)

// RunWorker runs the outbox producer and the daily session sweeper until
// a termination signal arrives.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)

	cutoffHour, cutoffMinute, err := parseCutoff(os.Getenv("AUTO_CLOSE_AT"))
	if err != nil {
		return err
	}
	location, err := loadLocation(os.Getenv("AUTO_CLOSE_TZ"))
	if err != nil {
		return err
	}

	sweeper := session.NewSweeper(gormDB, sessionRepo, outboxRepo, clock.Real{}, cutoffHour, cutoffMinute, location)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)
	go sweeper.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

// parseCutoff parses "HH:MM" wall-clock time.
func parseCutoff(raw string) (hour, minute int, err error) {
	if raw == "" {
		raw = defaultAutoCloseAt
	}
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid AUTO_CLOSE_AT %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid AUTO_CLOSE_AT %q, expected HH:MM", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid AUTO_CLOSE_AT %q, expected HH:MM", raw)
	}
	return hour, minute, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = defaultAutoCloseTZ
	}
	return time.LoadLocation(name)
}
