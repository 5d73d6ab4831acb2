//go:build integration

package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"tourbook/pkg/auth"
	"tourbook/pkg/client"

	"github.com/stretchr/testify/require"
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	JWTSecret    string
	ToursURL     string
	BookingsURL  string
	ReviewsURL   string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		JWTSecret:    getEnv("TEST_JWT_SECRET", "integration-secret"),
		ToursURL:     getEnv("TEST_TOURS_URL", fmt.Sprintf("http://localhost:%s", getEnv("TEST_TOURS_PORT", "8081"))),
		BookingsURL:  getEnv("TEST_BOOKINGS_URL", fmt.Sprintf("http://localhost:%s", getEnv("TEST_BOOKINGS_PORT", "8082"))),
		ReviewsURL:   getEnv("TEST_REVIEWS_URL", fmt.Sprintf("http://localhost:%s", getEnv("TEST_REVIEWS_PORT", "8083"))),
	}
}

// Clients holds one client per service, all authenticated as an admin.
type Clients struct {
	Tours    *client.TourClient
	Bookings *client.BookingClient
	Reviews  *client.ReviewClient
}

func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Clients) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanCollections(t, ToursCollection, BookingsCollection, ReviewsCollection)

	admin := e.Token(t, auth.Actor{ID: "admin-1", Role: auth.RoleAdmin})
	clients := &Clients{
		Tours:    client.NewTourClient(e.ToursURL, admin),
		Bookings: client.NewBookingClient(e.BookingsURL, admin),
		Reviews:  client.NewReviewClient(e.ReviewsURL, admin),
	}
	for _, url := range []string{e.ToursURL, e.BookingsURL, e.ReviewsURL} {
		require.NoError(t, client.NewHttpClient(url).WaitForHealthy(DefaultHealthCheckTimeout), url)
	}

	return mongo, clients
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanCollections(t, ToursCollection, BookingsCollection, ReviewsCollection)
		mongo.Close(t)
	}
}

// Token signs a bearer token the services under test accept.
func (e *TestEnv) Token(t *testing.T, actor auth.Actor) string {
	t.Helper()
	token, err := auth.NewTokenService(e.JWTSecret, time.Hour).GenerateToken(actor)
	require.NoError(t, err)
	return token
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultHealthCheckTimeout = 3 * ConnectionTimeout
)
