package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
	reviewserrors "tourbook/internal/reviews/errors"
	tourserrors "tourbook/internal/tours/errors"
	"tourbook/pkg/model"
	"tourbook/pkg/stats"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeReviewRepository struct {
	mu      sync.Mutex
	reviews map[string]*model.Review
}

func newFakeReviewRepository() *fakeReviewRepository {
	return &fakeReviewRepository{reviews: map[string]*model.Review{}}
}

func clone(r *model.Review) *model.Review {
	cp := *r
	cp.Responses = append([]model.ReviewResponse(nil), r.Responses...)
	return &cp
}

func (f *fakeReviewRepository) Create(_ context.Context, review *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.TourID == review.TourID {
			return reviewserrors.ErrDuplicate
		}
	}
	review.ID = primitive.NewObjectID().Hex()
	f.reviews[review.ID] = clone(review)
	return nil
}

func (f *fakeReviewRepository) get(id string) (*model.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reviewserrors.ErrNotFound, id)
	}
	return r, nil
}

func (f *fakeReviewRepository) FindByID(_ context.Context, id string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return clone(r), nil
}

func (f *fakeReviewRepository) ExistsForUserTour(_ context.Context, userID, tourID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.UserID == userID && r.TourID == tourID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewRepository) matching(tourID string, publicOnly bool) []*model.Review {
	out := []*model.Review{}
	for _, r := range f.reviews {
		if r.TourID != tourID || (publicOnly && !r.PubliclyVisible()) {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HelpfulVotes > out[j].HelpfulVotes })
	return out
}

func (f *fakeReviewRepository) ListByTour(_ context.Context, tourID string, publicOnly bool, limit int, offset int64) ([]*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.matching(tourID, publicOnly)
	if int(offset) >= len(all) {
		return []*model.Review{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeReviewRepository) CountByTour(_ context.Context, tourID string, publicOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(tourID, publicOnly))), nil
}

func (f *fakeReviewRepository) Update(_ context.Context, review *model.Review) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(review.ID)
	if err != nil {
		return nil, err
	}
	r.Rating = review.Rating
	r.Title = review.Title
	r.Comment = review.Comment
	r.Highlights = review.Highlights
	r.Improvements = review.Improvements
	r.WouldRecommend = review.WouldRecommend
	r.ModerationStatus = model.ModerationPending
	r.UpdatedAt = review.UpdatedAt
	return clone(r), nil
}

func (f *fakeReviewRepository) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(id); err != nil {
		return err
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepository) Report(_ context.Context, id string, threshold int, at time.Time) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	r.ReportedCount++
	if r.ReportedCount >= threshold {
		r.IsVisible = false
		r.ModerationStatus = model.ModerationPending
	}
	r.UpdatedAt = at
	return clone(r), nil
}

func (f *fakeReviewRepository) SetModeration(_ context.Context, id string, status model.ModerationStatus, visible *bool, at time.Time) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	r.ModerationStatus = status
	if status == model.ModerationApproved {
		r.ReportedCount = 0
	}
	if visible != nil {
		r.IsVisible = *visible
	}
	r.UpdatedAt = at
	return clone(r), nil
}

func (f *fakeReviewRepository) AddResponse(_ context.Context, id string, response model.ReviewResponse) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	r.Responses = append(r.Responses, response)
	return clone(r), nil
}

func (f *fakeReviewRepository) IncrementHelpful(_ context.Context, id string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	r.HelpfulVotes++
	return clone(r), nil
}

func (f *fakeReviewRepository) Stats(_ context.Context) ([]stats.ReviewStatusRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byStatus := map[string]*stats.ReviewStatusRow{}
	for _, r := range f.reviews {
		row, ok := byStatus[string(r.ModerationStatus)]
		if !ok {
			row = &stats.ReviewStatusRow{Status: string(r.ModerationStatus)}
			byStatus[row.Status] = row
		}
		row.Count++
		row.RatingSum += float64(r.Rating)
	}
	rows := []stats.ReviewStatusRow{}
	for _, row := range byStatus {
		rows = append(rows, *row)
	}
	return rows, nil
}

type bookingReader map[string]*model.Booking

func (b bookingReader) FindByID(_ context.Context, id string) (*model.Booking, error) {
	booking, ok := b[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *booking
	return &cp, nil
}

type tourReader map[string]*model.Tour

func (t tourReader) FindByID(_ context.Context, id string) (*model.Tour, error) {
	tour, ok := t[id]
	if !ok {
		return nil, tourserrors.ErrNotFound
	}
	return tour, nil
}
