package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tourbook/internal/bookings/policy"
	"tourbook/internal/bookings/repository"
	"tourbook/internal/bookings/validator"
	"tourbook/internal/ledger"
	tourserrors "tourbook/internal/tours/errors"
	"tourbook/pkg/auth"
	"tourbook/pkg/cache"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/model"
	"tourbook/pkg/notify"
	"tourbook/pkg/sanitizer"
	"tourbook/pkg/stats"
	"tourbook/pkg/validation"
)

const statsCacheKey = "stats:overview"

type BookingService interface {
	Create(ctx context.Context, actor auth.Actor, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error)
	List(ctx context.Context, actor auth.Actor, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, actor auth.Actor, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, actor auth.Actor, id string, req *model.CancelRequest) (*model.CancelResult, error)
	Confirm(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error)
	Complete(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error)
	RecordPayment(ctx context.Context, actor auth.Actor, id string, update *model.PaymentUpdate) (*model.Booking, error)
	Stats(ctx context.Context, actor auth.Actor) (*stats.BookingStats, error)
}

// TourReader loads the bookable product a booking refers to.
type TourReader interface {
	FindByID(ctx context.Context, id string) (*model.Tour, error)
}

type Dependencies struct {
	Repo      repository.BookingRepository
	Tours     TourReader
	Ledger    ledger.Ledger
	Refunds   *policy.RefundPolicy
	Notifier  notify.Notifier
	Cache     cache.Cache
	Clock     clock.Clock
	Validator *validator.BookingValidator
}

type bookingService struct {
	repo      repository.BookingRepository
	tours     TourReader
	ledger    ledger.Ledger
	refunds   *policy.RefundPolicy
	notifier  notify.Notifier
	cache     cache.Cache
	clock     clock.Clock
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(deps Dependencies, cfg *config.Config) BookingService {
	return &bookingService{
		repo:      deps.Repo,
		tours:     deps.Tours,
		ledger:    deps.Ledger,
		refunds:   deps.Refunds,
		notifier:  deps.Notifier,
		cache:     deps.Cache,
		clock:     deps.Clock,
		validator: deps.Validator,
		cfg:       cfg,
	}
}

// now is truncated to what the document store keeps, so updated_at read
// back compares equal in optimistic updates.
func (s *bookingService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func (s *bookingService) Create(ctx context.Context, actor auth.Actor, req *model.BookingRequest) (*model.Booking, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	req.Travelers = sanitizer.SanitizeTravelers(req.Travelers)
	req.SpecialRequests = sanitizer.NormalizeText(req.SpecialRequests)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "tour_id", req.TourID, "error", err)
		return nil, validationError("Invalid booking input", err)
	}

	tour, err := s.loadTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}

	date := model.NormalizeDate(req.StartDate)
	window, ok := tour.FindWindow(date)
	if !ok {
		return nil, apperrors.NotAvailable(fmt.Sprintf("Tour has no departure on %s", date.Format(time.DateOnly)))
	}

	count := len(req.Travelers)
	if err := checkGroupSize(tour, count); err != nil {
		return nil, err
	}
	if !window.CanReserve(count) {
		return nil, apperrors.InsufficientCapacity(count, window.AvailableSpots)
	}

	price, err := policy.Quote(tour.UnitPrice(window), count, 0, s.cfg.TaxRate, tour.Currency)
	if err != nil {
		return nil, apperrors.Internal("Failed to price booking", err)
	}

	now := s.now()
	booking := &model.Booking{
		TourID:            tour.ID,
		UserID:            actor.ID,
		StartDate:         date,
		Travelers:         req.Travelers,
		NumberOfTravelers: count,
		Price:             price,
		Status:            model.BookingPending,
		Payment: model.Payment{
			Method:       req.PaymentMethod,
			Status:       model.PaymentPending,
			Transactions: []model.PaymentTransaction{},
		},
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.validator.Validate(booking); err != nil {
		return nil, validationError("Invalid booking", err)
	}

	if s.cfg.MongoTransactions {
		err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			return s.reserveAndInsert(txCtx, booking)
		})
	} else {
		err = s.reserveAndInsert(ctx, booking)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "tour_id", booking.TourID, "start_date", date, "error", err)
		return nil, err
	}

	s.invalidateStats(ctx)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"tour_id", booking.TourID,
		"user_id", booking.UserID,
		"start_date", booking.StartDate,
		"travelers", booking.NumberOfTravelers,
		"total_price", booking.Price.TotalPrice,
	)
	return booking, nil
}

// reserveAndInsert takes the spots before the booking exists, so a crash in
// between can only leave spots unsold, never oversold. Outside a transaction
// a failed insert hands the spots back.
func (s *bookingService) reserveAndInsert(ctx context.Context, booking *model.Booking) error {
	count := booking.NumberOfTravelers
	if _, err := s.ledger.Reserve(ctx, booking.TourID, booking.StartDate, count); err != nil {
		return s.mapLedgerError(err, booking.TourID, count)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if !isTransaction(ctx) {
			s.release(ctx, booking.TourID, booking.StartDate, count, "booking insert failed")
		}
		return apperrors.Internal("Failed to create booking", err)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.IsOwnerOrAdmin(actor, booking.UserID) {
		return nil, apperrors.Forbidden("You can only view your own bookings")
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, actor auth.Actor, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if actor.ID == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown booking status: %s", filter.Status))
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Stats(ctx context.Context, actor auth.Actor) (*stats.BookingStats, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can view booking statistics")
	}

	var cached stats.BookingStats
	if s.cacheGet(ctx, &cached) {
		return &cached, nil
	}

	now := s.clock.Now()
	statusRows, monthRows, err := s.repo.Stats(ctx, stats.MonthsWindowStart(now, s.cfg.StatsMonths))
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate booking stats", "error", err)
		return nil, apperrors.Internal("Failed to compute booking statistics", err)
	}

	result := stats.BuildBookingStats(statusRows, monthRows, now, s.cfg.StatsMonths)
	s.cacheSet(ctx, result)
	return &result, nil
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) loadTour(ctx context.Context, id string) (*model.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) || errors.Is(err, tourserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Tour", id)
		}
		return nil, apperrors.Internal("Failed to load tour", err)
	}
	if !tour.IsActive {
		return nil, apperrors.NotFoundWithID("Tour", id)
	}
	return tour, nil
}

func checkGroupSize(tour *model.Tour, count int) error {
	if tour.MaxGroupSize > 0 && count > tour.MaxGroupSize {
		return apperrors.Validation("Invalid booking input", validation.Field("travelers",
			fmt.Sprintf("a booking can include at most %d travelers", tour.MaxGroupSize)).Details())
	}
	return nil
}

func validStatus(status model.BookingStatus) bool {
	for _, st := range model.BookingStatuses {
		if st == status {
			return true
		}
	}
	return false
}
