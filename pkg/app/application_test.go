package app

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourbook/pkg/auth"
	"tourbook/pkg/client"
	"tourbook/pkg/config"
	httputil "tourbook/pkg/http"
	"tourbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "application-test-secret"

type echoHandler struct {
	calls int
}

func (h *echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		actor, _ := auth.ActorFromContext(r.Context())
		_ = httputil.WriteSuccess(w, actor)
	})
	router.POST("/api/v1/things", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.calls++
		_ = httputil.WriteCreated(w, map[string]int{"call": h.calls})
	})
}

func testConfig(rateLimit int) *config.Config {
	return &config.Config{
		ServiceName:       "test",
		Port:              "0",
		JWTSecret:         testSecret,
		RateLimitRequests: rateLimit,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Hour,
		CacheTimeout:      time.Second,
		MaxRequestSize:    1024,
		Log:               logger.New(logger.Config{Level: "error", Output: io.Discard}),
		Client:            client.NewClient(),
	}
}

func newTestApp(t *testing.T, rateLimit int) (http.Handler, *echoHandler) {
	t.Helper()
	h := &echoHandler{}
	a := NewApplication(testConfig(rateLimit))
	a.SetApp(h)
	t.Cleanup(a.rateLimiter.Stop)
	return a.Handler(), h
}

func token(t *testing.T, actor auth.Actor) string {
	t.Helper()
	tok, err := auth.NewTokenService(testSecret, time.Hour).GenerateToken(actor)
	require.NoError(t, err)
	return tok
}

func TestApplication_AuthenticatedRequest(t *testing.T) {
	handler, _ := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, auth.Actor{ID: "alice", Role: auth.RoleUser}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplication_RejectsBadToken(t *testing.T) {
	handler, _ := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplication_RateLimit(t *testing.T) {
	handler, _ := newTestApp(t, 2)
	bearer := "Bearer " + token(t, auth.Actor{ID: "bob", Role: auth.RoleUser})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", bearer)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestApplication_IdempotentReplay(t *testing.T) {
	handler, h := newTestApp(t, 100)
	bearer := "Bearer " + token(t, auth.Actor{ID: "carol", Role: auth.RoleUser})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/things", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer)
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, h.calls)
}

func TestApplication_RejectsWrongContentType(t *testing.T) {
	handler, h := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", bytes.NewBufferString(`x=1`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Zero(t, h.calls)
}

func TestApplication_HealthBypassesRateLimit(t *testing.T) {
	handler, _ := newTestApp(t, 1)

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
