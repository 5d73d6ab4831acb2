package service

import (
	"context"
	"errors"
	"time"

	reviewserrors "tourbook/internal/reviews/errors"
	"tourbook/internal/reviews/repository"
	"tourbook/internal/reviews/validator"
	tourserrors "tourbook/internal/tours/errors"
	"tourbook/pkg/auth"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/model"
	"tourbook/pkg/sanitizer"
	"tourbook/pkg/stats"
	"tourbook/pkg/validation"
)

type ReviewService interface {
	Create(ctx context.Context, actor auth.Actor, req *model.ReviewRequest) (*model.Review, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Review, error)
	ListByTour(ctx context.Context, actor auth.Actor, tourID string, limit int, offset int64) ([]*model.Review, int64, error)
	Update(ctx context.Context, actor auth.Actor, id string, updates *model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	Report(ctx context.Context, actor auth.Actor, id string) (*model.Review, error)
	Moderate(ctx context.Context, actor auth.Actor, id string, req *model.ModerationRequest) (*model.Review, error)
	Respond(ctx context.Context, actor auth.Actor, id string, req *model.ResponseRequest) (*model.Review, error)
	MarkHelpful(ctx context.Context, actor auth.Actor, id string) (*model.Review, error)
	CheckEligibility(ctx context.Context, actor auth.Actor, tourID, bookingID string) (*EligibilityResult, error)
	Stats(ctx context.Context, actor auth.Actor) (*stats.ReviewStats, error)
}

// TourReader is used to check that a responding partner owns the tour.
type TourReader interface {
	FindByID(ctx context.Context, id string) (*model.Tour, error)
}

// EligibilityResult is the answer to "may I review this tour with this booking".
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Code     string `json:"code,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type Dependencies struct {
	Repo        repository.ReviewRepository
	Tours       TourReader
	Eligibility *Eligibility
	Clock       clock.Clock
	Validator   *validator.ReviewValidator
}

type reviewService struct {
	repo        repository.ReviewRepository
	tours       TourReader
	eligibility *Eligibility
	clock       clock.Clock
	validator   *validator.ReviewValidator
	cfg         *config.Config
}

func NewReviewService(deps Dependencies, cfg *config.Config) ReviewService {
	return &reviewService{
		repo:        deps.Repo,
		tours:       deps.Tours,
		eligibility: deps.Eligibility,
		clock:       deps.Clock,
		validator:   deps.Validator,
		cfg:         cfg,
	}
}

func (s *reviewService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func (s *reviewService) Create(ctx context.Context, actor auth.Actor, req *model.ReviewRequest) (*model.Review, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	req.Title = sanitizer.NormalizeName(req.Title)
	req.Comment = sanitizer.NormalizeText(req.Comment)
	req.Highlights = sanitizer.NormalizePoints(req.Highlights)
	req.Improvements = sanitizer.NormalizePoints(req.Improvements)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Review validation failed",
			"tour_id", req.TourID,
			"error", err,
		)
		return nil, validationError("Review validation failed", err)
	}

	if err := s.eligibility.CanCreateReview(ctx, actor.ID, req.TourID, req.BookingID); err != nil {
		s.cfg.Log.Info("Review creation denied",
			"user_id", actor.ID,
			"tour_id", req.TourID,
			"booking_id", req.BookingID,
			"reason", err,
		)
		return nil, err
	}

	now := s.now()
	review := &model.Review{
		TourID:           req.TourID,
		UserID:           actor.ID,
		BookingID:        req.BookingID,
		Rating:           req.Rating,
		Title:            req.Title,
		Comment:          req.Comment,
		Highlights:       req.Highlights,
		Improvements:     req.Improvements,
		WouldRecommend:   req.WouldRecommend,
		ModerationStatus: model.ModerationPending,
		IsVisible:        true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrDuplicate) {
			return nil, apperrors.DuplicateReview()
		}
		s.cfg.Log.Error("Failed to create review",
			"user_id", actor.ID,
			"tour_id", req.TourID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created successfully",
		"id", review.ID,
		"tour_id", review.TourID,
		"rating", review.Rating,
	)
	return review, nil
}

// GetByID shows reviews that are not publicly visible only to their author and admins.
func (s *reviewService) GetByID(ctx context.Context, actor auth.Actor, id string) (*model.Review, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.PubliclyVisible() && !auth.IsOwnerOrAdmin(actor, review.UserID) {
		return nil, apperrors.NotFoundWithID("Review", id)
	}
	return review, nil
}

func (s *reviewService) ListByTour(ctx context.Context, actor auth.Actor, tourID string, limit int, offset int64) ([]*model.Review, int64, error) {
	if tourID == "" {
		return nil, 0, apperrors.InvalidInput("Tour ID cannot be empty")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	publicOnly := !actor.IsAdmin()

	reviews, err := s.repo.ListByTour(ctx, tourID, publicOnly, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reviews",
			"tour_id", tourID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", err)
	}
	count, err := s.repo.CountByTour(ctx, tourID, publicOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to count reviews",
			"tour_id", tourID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to count reviews", err)
	}
	return reviews, count, nil
}

// Update applies an author edit. Any edit sends the review back to moderation.
func (s *reviewService) Update(ctx context.Context, actor auth.Actor, id string, updates *model.ReviewUpdate) (*model.Review, error) {
	if updates == nil || updates.IsEmpty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.eligibility.CanEditReview(review, actor) {
		if review.UserID == actor.ID {
			return nil, apperrors.Forbidden("The edit window for this review has closed")
		}
		return nil, apperrors.Forbidden("You can only edit your own reviews")
	}

	if updates.Title != nil {
		title := sanitizer.NormalizeName(*updates.Title)
		updates.Title = &title
	}
	if updates.Comment != nil {
		comment := sanitizer.NormalizeText(*updates.Comment)
		updates.Comment = &comment
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, validationError("Review validation failed", err)
	}

	applyReviewUpdate(review, updates)
	review.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, review)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update review")
	}

	s.cfg.Log.Info("Review updated successfully",
		"id", id,
		"by", actor.ID,
	)
	return updated, nil
}

func applyReviewUpdate(review *model.Review, updates *model.ReviewUpdate) {
	if updates.Rating != nil {
		review.Rating = *updates.Rating
	}
	if updates.Title != nil {
		review.Title = *updates.Title
	}
	if updates.Comment != nil {
		review.Comment = *updates.Comment
	}
	if updates.Highlights != nil {
		review.Highlights = sanitizer.NormalizePoints(*updates.Highlights)
	}
	if updates.Improvements != nil {
		review.Improvements = sanitizer.NormalizePoints(*updates.Improvements)
	}
	if updates.WouldRecommend != nil {
		review.WouldRecommend = *updates.WouldRecommend
	}
	review.ModerationStatus = model.ModerationPending
}

func (s *reviewService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !auth.IsOwnerOrAdmin(actor, review.UserID) {
		return apperrors.Forbidden("You can only delete your own reviews")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete review")
	}

	s.cfg.Log.Info("Review deleted successfully",
		"id", id,
		"by", actor.ID,
	)
	return nil
}

func (s *reviewService) Report(ctx context.Context, actor auth.Actor, id string) (*model.Review, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}

	review, err := s.repo.Report(ctx, id, s.cfg.ReviewReportThreshold, s.now())
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to report review")
	}

	if review.ReportedCount == s.cfg.ReviewReportThreshold {
		s.cfg.Log.Warn("Review hidden after reaching report threshold",
			"id", id,
			"reported_count", review.ReportedCount,
		)
	}
	return review, nil
}

func (s *reviewService) Moderate(ctx context.Context, actor auth.Actor, id string, req *model.ModerationRequest) (*model.Review, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can moderate reviews")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}
	if err := s.validator.ValidateModeration(req); err != nil {
		return nil, validationError("Moderation validation failed", err)
	}

	var visible *bool
	switch req.Status {
	case model.ModerationApproved:
		visible = boolPtr(true)
	case model.ModerationRejected:
		visible = boolPtr(false)
	}

	review, err := s.repo.SetModeration(ctx, id, req.Status, visible, s.now())
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to moderate review")
	}

	s.cfg.Log.Info("Review moderated",
		"id", id,
		"status", req.Status,
		"by", actor.ID,
	)
	return review, nil
}

// Respond appends a reply from an admin or from the partner who runs the tour.
func (s *reviewService) Respond(ctx context.Context, actor auth.Actor, id string, req *model.ResponseRequest) (*model.Review, error) {
	if !actor.IsAdmin() && !actor.IsPartner() {
		return nil, apperrors.Forbidden("Only admins and partners can respond to reviews")
	}

	req.Message = sanitizer.NormalizeText(req.Message)
	if err := s.validator.ValidateResponse(req); err != nil {
		return nil, validationError("Response validation failed", err)
	}

	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsPartner() {
		if err := s.checkTourOwner(ctx, actor, review.TourID); err != nil {
			return nil, err
		}
	}

	response := model.ReviewResponse{
		Author:     actor.ID,
		AuthorType: string(actor.Role),
		Message:    req.Message,
		CreatedAt:  s.now(),
	}
	updated, err := s.repo.AddResponse(ctx, id, response)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to add response")
	}
	return updated, nil
}

func (s *reviewService) checkTourOwner(ctx context.Context, actor auth.Actor, tourID string) error {
	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) || errors.Is(err, tourserrors.ErrInvalidID) {
			return apperrors.Forbidden("You can only respond to reviews of your own tours")
		}
		return apperrors.Internal("Failed to load tour", err)
	}
	if tour.PartnerID != actor.ID {
		return apperrors.Forbidden("You can only respond to reviews of your own tours")
	}
	return nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, actor auth.Actor, id string) (*model.Review, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}

	review, err := s.repo.IncrementHelpful(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to record helpful vote")
	}
	return review, nil
}

func (s *reviewService) CheckEligibility(ctx context.Context, actor auth.Actor, tourID, bookingID string) (*EligibilityResult, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if tourID == "" || bookingID == "" {
		return nil, apperrors.InvalidInput("tour_id and booking_id are required")
	}

	err := s.eligibility.CanCreateReview(ctx, actor.ID, tourID, bookingID)
	if err == nil {
		return &EligibilityResult{Eligible: true}, nil
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code == apperrors.CodeInternal {
		return nil, err
	}
	return &EligibilityResult{
		Eligible: false,
		Code:     appErr.Code,
		Reason:   appErr.Message,
	}, nil
}

func (s *reviewService) Stats(ctx context.Context, actor auth.Actor) (*stats.ReviewStats, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can view review statistics")
	}

	rows, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate review stats", "error", err)
		return nil, apperrors.Internal("Failed to compute review statistics", err)
	}

	result := stats.BuildReviewStats(rows)
	return &result, nil
}

func (s *reviewService) load(ctx context.Context, id string) (*model.Review, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve review")
	}
	return review, nil
}

func (s *reviewService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, reviewserrors.ErrNotFound), errors.Is(err, reviewserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Review", id)
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func validationError(message string, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}

func boolPtr(b bool) *bool {
	return &b
}
