package main

import (
	bookingsrepo "tourbook/internal/bookings/repository"
	"tourbook/internal/reviews/handler"
	"tourbook/internal/reviews/repository"
	"tourbook/internal/reviews/service"
	"tourbook/internal/reviews/validator"
	toursrepo "tourbook/internal/tours/repository"
	"tourbook/pkg/app"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
)

const ServiceName = "reviews"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reviews service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReviewHandler(initServices(cfg), cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReviewService {
	clk := clock.NewRealClock()
	reviewRepo := repository.NewMongoReviewRepository(cfg)

	reviewService := service.NewReviewService(service.Dependencies{
		Repo:        reviewRepo,
		Tours:       toursrepo.NewMongoTourRepository(cfg),
		Eligibility: service.NewEligibility(bookingsrepo.NewMongoBookingRepository(cfg), reviewRepo, clk, cfg.ReviewEditWindow),
		Clock:       clk,
		Validator:   validator.NewReviewValidator(cfg.Log),
	}, cfg)

	cfg.Log.Info("Review service initialized", "database", cfg.MongoDatabaseName)
	return reviewService
}
