package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tourbook/internal/reviews/service"
	"tourbook/pkg/auth"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"
	"tourbook/pkg/stats"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReviewService embeds the interface so tests only stub what they call.
type mockReviewService struct {
	service.ReviewService
	createFunc      func(ctx context.Context, actor auth.Actor, req *model.ReviewRequest) (*model.Review, error)
	listFunc        func(ctx context.Context, actor auth.Actor, tourID string, limit int, offset int64) ([]*model.Review, int64, error)
	reportFunc      func(ctx context.Context, actor auth.Actor, id string) (*model.Review, error)
	eligibilityFunc func(ctx context.Context, actor auth.Actor, tourID, bookingID string) (*service.EligibilityResult, error)
	statsFunc       func(ctx context.Context, actor auth.Actor) (*stats.ReviewStats, error)
}

func (m *mockReviewService) Create(ctx context.Context, actor auth.Actor, req *model.ReviewRequest) (*model.Review, error) {
	return m.createFunc(ctx, actor, req)
}

func (m *mockReviewService) ListByTour(ctx context.Context, actor auth.Actor, tourID string, limit int, offset int64) ([]*model.Review, int64, error) {
	return m.listFunc(ctx, actor, tourID, limit, offset)
}

func (m *mockReviewService) Report(ctx context.Context, actor auth.Actor, id string) (*model.Review, error) {
	return m.reportFunc(ctx, actor, id)
}

func (m *mockReviewService) CheckEligibility(ctx context.Context, actor auth.Actor, tourID, bookingID string) (*service.EligibilityResult, error) {
	return m.eligibilityFunc(ctx, actor, tourID, bookingID)
}

func (m *mockReviewService) Stats(ctx context.Context, actor auth.Actor) (*stats.ReviewStats, error) {
	return m.statsFunc(ctx, actor)
}

func newTestRouter(svc *mockReviewService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	router := httprouter.New()
	NewReviewHandler(svc, log).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, req *http.Request, actor *auth.Actor) *httptest.ResponseRecorder {
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate_Returns201WithEnvelope(t *testing.T) {
	alice := auth.Actor{ID: "user-alice", Role: auth.RoleUser}
	router := newTestRouter(&mockReviewService{
		createFunc: func(_ context.Context, actor auth.Actor, req *model.ReviewRequest) (*model.Review, error) {
			assert.Equal(t, alice, actor)
			return &model.Review{ID: "r1", TourID: req.TourID, Rating: req.Rating}, nil
		},
	})

	body := `{"tour_id":"64b7f0c2a1b2c3d4e5f60718","booking_id":"64b7f0c2a1b2c3d4e5f60001","rating":5,"title":"Great","comment":"Really enjoyed it"}`
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(body)), &alice)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data model.Review `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "r1", resp.Data.ID)
	assert.Equal(t, 5, resp.Data.Rating)
}

func TestCreate_MapsEligibilityErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "duplicate", err: apperrors.DuplicateReview(), want: http.StatusConflict},
		{name: "not completed", err: apperrors.ReviewNotAllowed("Only completed bookings can be reviewed"), want: http.StatusForbidden},
		{name: "missing booking", err: apperrors.NotFoundWithID("Booking", "b1"), want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockReviewService{
				createFunc: func(context.Context, auth.Actor, *model.ReviewRequest) (*model.Review, error) {
					return nil, tt.err
				},
			})
			rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{"rating":5}`)), nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreate_RejectsUnknownFields(t *testing.T) {
	router := newTestRouter(&mockReviewService{})
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{"stars":5}`)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByTour_PassesTourAndPagination(t *testing.T) {
	var gotTour string
	var gotLimit int
	var gotOffset int64
	router := newTestRouter(&mockReviewService{
		listFunc: func(_ context.Context, _ auth.Actor, tourID string, limit int, offset int64) ([]*model.Review, int64, error) {
			gotTour, gotLimit, gotOffset = tourID, limit, offset
			return []*model.Review{{ID: "r1"}}, 7, nil
		},
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/tour/t-9?limit=5&offset=5", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-9", gotTour)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, int64(5), gotOffset)

	var resp struct {
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(7), resp.TotalCount)
}

func TestReport_UsesPathID(t *testing.T) {
	router := newTestRouter(&mockReviewService{
		reportFunc: func(_ context.Context, _ auth.Actor, id string) (*model.Review, error) {
			return &model.Review{ID: id, ReportedCount: 5}, nil
		},
	})

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/v1/reviews/id/r42/report", nil), &auth.Actor{ID: "u1", Role: auth.RoleUser})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reported_count":5`)
}

func TestEligibility_ReadsQuery(t *testing.T) {
	router := newTestRouter(&mockReviewService{
		eligibilityFunc: func(_ context.Context, _ auth.Actor, tourID, bookingID string) (*service.EligibilityResult, error) {
			assert.Equal(t, "t1", tourID)
			assert.Equal(t, "b1", bookingID)
			return &service.EligibilityResult{Eligible: false, Code: apperrors.CodeReviewNotAllowed}, nil
		},
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/eligibility?tour_id=t1&booking_id=b1", nil), &auth.Actor{ID: "u1", Role: auth.RoleUser})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data service.EligibilityResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Data.Eligible)
	assert.Equal(t, apperrors.CodeReviewNotAllowed, resp.Data.Code)
}

func TestStats_Forbidden(t *testing.T) {
	router := newTestRouter(&mockReviewService{
		statsFunc: func(context.Context, auth.Actor) (*stats.ReviewStats, error) {
			return nil, apperrors.Forbidden("Only admins can view review statistics")
		},
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/stats/overview", nil), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
