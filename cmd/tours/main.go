package main

import (
	"tourbook/internal/tours/handler"
	"tourbook/internal/tours/repository"
	"tourbook/internal/tours/service"
	"tourbook/internal/tours/validator"
	"tourbook/pkg/app"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
)

const ServiceName = "tours"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Tours service")
	tourService := service.NewTourService(
		repository.NewMongoTourRepository(cfg),
		validator.NewTourValidator(cfg.Log),
		clock.NewRealClock(),
		cfg,
	)
	cfg.Log.Info("Tour service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTourHandler(tourService, cfg.Log))
	serverApp.Run()
}
