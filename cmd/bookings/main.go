package main

import (
	"io"

	"tourbook/internal/bookings/handler"
	"tourbook/internal/bookings/policy"
	"tourbook/internal/bookings/repository"
	"tourbook/internal/bookings/service"
	"tourbook/internal/bookings/validator"
	"tourbook/internal/ledger"
	toursrepo "tourbook/internal/tours/repository"
	"tourbook/pkg/app"
	"tourbook/pkg/cache"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	kafka_config "tourbook/pkg/kafka/config"
	"tourbook/pkg/notify"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	bookingService, notifierCloser := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown("notifier", notifierCloser)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, io.Closer) {
	clk := clock.NewRealClock()

	refunds, err := policy.RefundPolicyFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid refund policy", "error", err)
	}

	kcfg := kafka_config.Load()
	if kcfg.Enabled() {
		if err := kcfg.Validate(); err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kcfg.LogConfiguration(cfg.Log)
	}
	notifier, notifierCloser, err := notify.FromConfig(cfg, kcfg, clk)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifier", "error", err)
	}

	bookingService := service.NewBookingService(service.Dependencies{
		Repo:      repository.NewMongoBookingRepository(cfg),
		Tours:     toursrepo.NewMongoTourRepository(cfg),
		Ledger:    ledger.NewMongoLedger(cfg),
		Refunds:   refunds,
		Notifier:  notifier,
		Cache:     cache.FromConfig(cfg, ServiceName, clk),
		Clock:     clk,
		Validator: validator.NewBookingValidator(cfg.Log, clk),
	}, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, notifierCloser
}
