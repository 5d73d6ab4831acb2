package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"tourbook/pkg/auth"
	"tourbook/pkg/cache"
	"tourbook/pkg/logger"
)

const DefaultIdempotencyHeader = "Idempotency-Key"

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
}

// IdempotencyStore keeps replayable responses. Lookups that fail are misses.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, response *CachedResponse)
}

// CacheIdempotencyStore keeps responses in a cache.Cache, so with Redis
// configured a retry is replayed no matter which instance receives it.
type CacheIdempotencyStore struct {
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	log     *logger.Logger
}

func NewCacheIdempotencyStore(c cache.Cache, ttl, timeout time.Duration, log *logger.Logger) *CacheIdempotencyStore {
	return &CacheIdempotencyStore{cache: c, ttl: ttl, timeout: timeout, log: log}
}

func (s *CacheIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var cached CachedResponse
	found, err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		s.log.Warn("Idempotency lookup failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &cached, true
}

func (s *CacheIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := cache.SetJSON(ctx, s.cache, key, response, s.ttl); err != nil {
		s.log.Warn("Idempotency store failed", "key", key, "error", err)
	}
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key.
// Keys are scoped to the caller and route so they cannot collide across users.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)

			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key = scopedKey(r, key)

			if cached, found := store.Get(r.Context(), key); found {
				replayCachedResponse(w, cached)
				return
			}

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Set(r.Context(), key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				})
			}
		})
	}
}

func scopedKey(r *http.Request, key string) string {
	actor, _ := auth.ActorFromContext(r.Context())
	return "idempotency:" + actor.ID + ":" + r.Method + ":" + r.URL.Path + ":" + key
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == RequestIDHeader {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
