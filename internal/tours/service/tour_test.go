package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	tourserrors "tourbook/internal/tours/errors"
	"tourbook/internal/tours/validator"
	"tourbook/pkg/auth"
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTourRepository keeps tours in a map and mimics the guarded window write.
type fakeTourRepository struct {
	mu     sync.Mutex
	tours  map[string]*model.Tour
	nextID int

	// beforeUpdate runs inside Update before the guard is checked.
	beforeUpdate func(tour *model.Tour)
	lastFilter   model.TourFilter
}

func newFakeRepo() *fakeTourRepository {
	return &fakeTourRepository{tours: map[string]*model.Tour{}}
}

func (r *fakeTourRepository) Create(_ context.Context, tour *model.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tour.ID = fmt.Sprintf("%024x", r.nextID)
	clone := *tour
	r.tours[tour.ID] = &clone
	return nil
}

func (r *fakeTourRepository) FindByID(_ context.Context, id string) (*model.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tour, ok := r.tours[id]
	if !ok {
		return nil, tourserrors.ErrNotFound
	}
	clone := *tour
	clone.StartDates = append([]model.AvailabilityWindow(nil), tour.StartDates...)
	return &clone, nil
}

func (r *fakeTourRepository) Find(_ context.Context, filter model.TourFilter, _ int, _ int64) ([]*model.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := []*model.Tour{}
	for _, tour := range r.tours {
		if filter.ActiveOnly && !tour.IsActive {
			continue
		}
		clone := *tour
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTourRepository) Count(ctx context.Context, filter model.TourFilter) (int64, error) {
	tours, err := r.Find(ctx, filter, 0, 0)
	return int64(len(tours)), err
}

func (r *fakeTourRepository) Update(_ context.Context, tour *model.Tour, prevWindows []model.AvailabilityWindow, replaceWindows bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tours[tour.ID]
	if !ok {
		return tourserrors.ErrNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(stored)
	}
	windows := stored.StartDates
	if replaceWindows {
		if fmt.Sprint(stored.StartDates) != fmt.Sprint(prevWindows) {
			return tourserrors.ErrWindowsChanged
		}
		windows = tour.StartDates
	}
	clone := *tour
	clone.StartDates = windows
	r.tours[tour.ID] = &clone
	return nil
}

func (r *fakeTourRepository) Deactivate(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tour, ok := r.tours[id]
	if !ok {
		return tourserrors.ErrNotFound
	}
	tour.IsActive = false
	tour.UpdatedAt = at
	return nil
}

var (
	admin   = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
	partner = auth.Actor{ID: "partner-1", Role: auth.RolePartner}
	other   = auth.Actor{ID: "partner-2", Role: auth.RolePartner}
	user    = auth.Actor{ID: "user-1", Role: auth.RoleUser}
)

func june(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (TourService, *fakeTourRepository) {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	cfg := &config.Config{Log: log}
	repo := newFakeRepo()
	clk := clock.NewMockClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	return NewTourService(repo, validator.NewTourValidator(log), clk, cfg), repo
}

func newTour() *model.Tour {
	return &model.Tour{
		Name:         "  Kyoto   Temples ",
		Country:      "Japan",
		Continent:    "Asia",
		BasePrice:    100,
		Currency:     "usd",
		DurationDays: 5,
		MaxGroupSize: 10,
		StartDates: []model.AvailabilityWindow{
			{Date: june(1).Add(15 * time.Hour), TotalSpots: 10},
		},
	}
}

func TestCreate_NormalizesAndDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	tour, err := svc.Create(context.Background(), partner, newTour())
	require.NoError(t, err)

	assert.NotEmpty(t, tour.ID)
	assert.Equal(t, "Kyoto Temples", tour.Name)
	assert.Equal(t, "kyoto-temples", tour.Slug)
	assert.Equal(t, "USD", tour.Currency)
	assert.Equal(t, partner.ID, tour.PartnerID)
	assert.True(t, tour.IsActive)
	require.Len(t, tour.StartDates, 1)
	assert.Equal(t, june(1), tour.StartDates[0].Date)
	assert.Equal(t, 10, tour.StartDates[0].AvailableSpots)
}

func TestCreate_RejectsUsers(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), user, newTour())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreate_ValidationError(t *testing.T) {
	svc, _ := newTestService(t)
	tour := newTour()
	tour.Continent = "Atlantis"

	_, err := svc.Create(context.Background(), admin, tour)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetByID_InactiveHiddenFromUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, admin, tour.ID))

	_, err = svc.GetByID(ctx, user, tour.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	got, err := svc.GetByID(ctx, partner, tour.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestList_ActiveOnlyForNonAdmins(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, admin, newTour())
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, newTour())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, admin, first.ID))

	tours, total, err := svc.List(ctx, user, model.TourFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, tours, 1)
	assert.Equal(t, int64(1), total)
	assert.True(t, repo.lastFilter.ActiveOnly)

	_, total, err = svc.List(ctx, admin, model.TourFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUpdate_MergesWindowsKeepingSoldSpots(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)
	repo.tours[tour.ID].StartDates[0].AvailableSpots = 6

	windows := []model.AvailabilityWindow{
		{Date: june(1), TotalSpots: 12},
		{Date: june(8), TotalSpots: 8},
	}
	updated, err := svc.Update(ctx, partner, tour.ID, &model.TourUpdate{StartDates: &windows})
	require.NoError(t, err)

	require.Len(t, updated.StartDates, 2)
	assert.Equal(t, 8, updated.StartDates[0].AvailableSpots)
	assert.Equal(t, 8, updated.StartDates[1].AvailableSpots)
}

func TestUpdate_RejectsRemovingBookedDate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)
	repo.tours[tour.ID].StartDates[0].AvailableSpots = 6

	windows := []model.AvailabilityWindow{{Date: june(8), TotalSpots: 8}}
	_, err = svc.Update(ctx, partner, tour.ID, &model.TourUpdate{StartDates: &windows})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	stored := repo.tours[tour.ID]
	require.Len(t, stored.StartDates, 1)
	assert.True(t, stored.StartDates[0].Date.Equal(june(1)))
	assert.Equal(t, 4, stored.StartDates[0].Sold())
}

func TestUpdate_RemovesUnsoldDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)

	windows := []model.AvailabilityWindow{{Date: june(8), TotalSpots: 8}}
	updated, err := svc.Update(ctx, partner, tour.ID, &model.TourUpdate{StartDates: &windows})
	require.NoError(t, err)
	require.Len(t, updated.StartDates, 1)
	assert.True(t, updated.StartDates[0].Date.Equal(june(8)))
}

func TestUpdate_ConflictWhenWindowsMoved(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, admin, newTour())
	require.NoError(t, err)
	repo.beforeUpdate = func(stored *model.Tour) {
		stored.StartDates[0].AvailableSpots--
	}

	windows := []model.AvailabilityWindow{{Date: june(1), TotalSpots: 20}}
	_, err = svc.Update(ctx, admin, tour.ID, &model.TourUpdate{StartDates: &windows})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestUpdate_Permissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)
	name := "Osaka Food Walk"

	_, err = svc.Update(ctx, other, tour.ID, &model.TourUpdate{Name: &name})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	updated, err := svc.Update(ctx, admin, tour.ID, &model.TourUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "osaka-food-walk", updated.Slug)
}

func TestDeactivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, partner, newTour())
	require.NoError(t, err)

	err = svc.Deactivate(ctx, partner, tour.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	err = svc.Deactivate(ctx, admin, "000000000000000000000099")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
