package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tourserrors "tourbook/internal/tours/errors"
	"tourbook/internal/tours/repository"
	"tourbook/internal/tours/validator"
	"tourbook/pkg/auth"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/model"
	"tourbook/pkg/sanitizer"
	"tourbook/pkg/validation"
)

type TourService interface {
	Create(ctx context.Context, actor auth.Actor, tour *model.Tour) (*model.Tour, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Tour, error)
	List(ctx context.Context, actor auth.Actor, filter model.TourFilter, limit int, offset int64) ([]*model.Tour, int64, error)
	Update(ctx context.Context, actor auth.Actor, id string, updates *model.TourUpdate) (*model.Tour, error)
	Deactivate(ctx context.Context, actor auth.Actor, id string) error
}

type tourService struct {
	repo      repository.TourRepository
	validator *validator.TourValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewTourService(
	repo repository.TourRepository,
	validator *validator.TourValidator,
	clk clock.Clock,
	cfg *config.Config,
) TourService {
	return &tourService{
		repo:      repo,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *tourService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func canManage(actor auth.Actor, tour *model.Tour) bool {
	return actor.IsAdmin() || (actor.IsPartner() && tour.PartnerID == actor.ID)
}

func (s *tourService) Create(ctx context.Context, actor auth.Actor, tour *model.Tour) (*model.Tour, error) {
	if !actor.IsAdmin() && !actor.IsPartner() {
		return nil, apperrors.Forbidden("Only admins and partners can create tours")
	}

	s.sanitize(tour)
	s.applyDefaultsForNewTour(tour, actor)

	if err := s.validator.Validate(tour); err != nil {
		s.cfg.Log.Warn("Tour validation failed",
			"name", tour.Name,
			"error", err,
		)
		return nil, validationError("Tour validation failed", err)
	}

	if err := s.repo.Create(ctx, tour); err != nil {
		s.cfg.Log.Error("Failed to create tour",
			"name", tour.Name,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create tour", err)
	}

	s.cfg.Log.Info("Tour created successfully",
		"id", tour.ID,
		"name", tour.Name,
		"partner_id", tour.PartnerID,
		"windows", len(tour.StartDates),
	)
	return tour, nil
}

// GetByID hides inactive tours from everyone but their managers.
func (s *tourService) GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Tour, error) {
	tour, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tour.IsActive && !canManage(actor, tour) {
		return nil, apperrors.NotFoundWithID("Tour", id)
	}
	return tour, nil
}

func (s *tourService) List(ctx context.Context, actor auth.Actor, filter model.TourFilter, limit int, offset int64) ([]*model.Tour, int64, error) {
	if !actor.IsAdmin() {
		filter.ActiveOnly = true
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var tours []*model.Tour
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count tours", "error", err)
			errCount = apperrors.Internal("Failed to count tours", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		tours, err = s.repo.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list tours",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve tours", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return tours, count, nil
}

func (s *tourService) Update(ctx context.Context, actor auth.Actor, id string, updates *model.TourUpdate) (*model.Tour, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, existing) {
		return nil, apperrors.Forbidden("You can only modify your own tours")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, validationError("Tour validation failed", err)
	}

	if updates.StartDates != nil {
		if dropped := model.DroppedSoldWindows(existing.StartDates, *updates.StartDates); len(dropped) > 0 {
			dates := make([]string, 0, len(dropped))
			for _, w := range dropped {
				dates = append(dates, w.Date.Format(time.DateOnly))
			}
			s.cfg.Log.Warn("Tour update would remove booked dates", "id", id, "dates", dates)
			return nil, apperrors.Conflict("Start dates with booked spots cannot be removed").
				WithDetails(map[string]any{"dates": dates})
		}
	}

	merged := s.mergeTourUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Tour validation failed",
			"id", id,
			"error", err,
		)
		return nil, validationError("Tour validation failed", err)
	}

	if err := s.repo.Update(ctx, merged, existing.StartDates, updates.StartDates != nil); err != nil {
		switch {
		case errors.Is(err, tourserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Tour", id)
		case errors.Is(err, tourserrors.ErrWindowsChanged):
			return nil, apperrors.Conflict("Tour availability changed while updating, please retry")
		}
		s.cfg.Log.Error("Failed to update tour",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update tour", err)
	}

	s.cfg.Log.Info("Tour updated successfully",
		"id", id,
		"name", merged.Name,
		"windows_replaced", updates.StartDates != nil,
	)
	return merged, nil
}

// Deactivate hides the tour from listings and new bookings. Existing
// bookings are untouched and can still be cancelled.
func (s *tourService) Deactivate(ctx context.Context, actor auth.Actor, id string) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("Only admins can deactivate tours")
	}
	if id == "" {
		return apperrors.InvalidInput("Tour ID cannot be empty")
	}

	if err := s.repo.Deactivate(ctx, id, s.now()); err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return mapped
		}
		s.cfg.Log.Error("Failed to deactivate tour",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to deactivate tour", err)
	}

	s.cfg.Log.Info("Tour deactivated", "id", id, "by", actor.ID)
	return nil
}

func (s *tourService) load(ctx context.Context, id string) (*model.Tour, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Tour ID cannot be empty")
	}

	tour, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return nil, mapped
		}
		s.cfg.Log.Error("Failed to get tour by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}
	return tour, nil
}

func mapLookupError(err error, id string) error {
	if errors.Is(err, tourserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Tour", id)
	}
	if errors.Is(err, tourserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid tour ID format")
	}
	return nil
}

func validationError(message string, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}

func (s *tourService) sanitize(tour *model.Tour) {
	tour.Name = sanitizer.NormalizeName(tour.Name)
	tour.Slug = sanitizer.Slugify(tour.Name)
	tour.Country = sanitizer.NormalizeName(tour.Country)
	tour.Currency = strings.ToUpper(strings.TrimSpace(tour.Currency))
}

func (s *tourService) applyDefaultsForNewTour(tour *model.Tour, actor auth.Actor) {
	now := s.now()
	tour.ID = ""
	tour.IsActive = true
	tour.StartDates = model.NormalizeWindows(tour.StartDates)
	tour.CreatedAt = now
	tour.UpdatedAt = now
	if actor.IsPartner() {
		tour.PartnerID = actor.ID
	}
}

// mergeTourUpdates applies updates to a copy of existing. Replaced windows
// keep the spots already sold on dates that survive.
func (s *tourService) mergeTourUpdates(existing *model.Tour, updates *model.TourUpdate) *model.Tour {
	merged := *existing
	merged.StartDates = append([]model.AvailabilityWindow(nil), existing.StartDates...)

	if updates.Name != nil {
		merged.Name = sanitizer.NormalizeName(*updates.Name)
		merged.Slug = sanitizer.Slugify(merged.Name)
	}
	if updates.Country != nil {
		merged.Country = sanitizer.NormalizeName(*updates.Country)
	}
	if updates.Continent != nil {
		merged.Continent = *updates.Continent
	}
	if updates.BasePrice != nil {
		merged.BasePrice = *updates.BasePrice
	}
	if updates.DurationDays != nil {
		merged.DurationDays = *updates.DurationDays
	}
	if updates.MaxGroupSize != nil {
		merged.MaxGroupSize = *updates.MaxGroupSize
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}
	if updates.StartDates != nil {
		merged.StartDates = model.MergeWindows(existing.StartDates, *updates.StartDates)
	}
	merged.UpdatedAt = s.now()
	return &merged
}
