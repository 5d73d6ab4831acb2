package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbook/internal/notifications"
	"tourbook/pkg/config"
	"tourbook/pkg/kafka"
	kafka_config "tourbook/pkg/kafka/config"
	kafka_middleware "tourbook/pkg/kafka/middleware"
)

const ServiceName = "notifications"

const metricsInterval = time.Minute

func main() {
	cfg := config.Load(ServiceName)
	kcfg := kafka_config.Load()
	if !kcfg.Enabled() {
		cfg.Log.Fatal("KAFKA_BROKERS must be set for the notifications worker")
	}
	if err := kcfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	handler := notifications.NewHandler(notifications.NewLogSender(cfg.Log), cfg.Log)
	consumer, err := kafka.NewConsumer(kcfg, cfg.BookingEventsTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reportMetrics(ctx, cfg, consumer, metrics)

	cfg.Log.Info("Starting notifications worker", "topic", cfg.BookingEventsTopic, "group", kcfg.ConsumerGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	cfg.Log.Info("Shutting down notifications worker")
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
}

func reportMetrics(ctx context.Context, cfg *config.Config, consumer *kafka.Consumer, metrics *kafka_middleware.Metrics) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg.Log.Info("Consumer metrics", "lag", consumer.Lag(), "snapshot", metrics.Snapshot())
		}
	}
}
