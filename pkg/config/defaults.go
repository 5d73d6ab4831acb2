package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tourbook"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoTransactions = false

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultTaxRate = 0.10

	DefaultRefundFullDays       = 30
	DefaultRefundPartialDays    = 14
	DefaultRefundPartialPercent = 50
	DefaultRefundMinimalDays    = 7
	DefaultRefundMinimalPercent = 25

	DefaultReviewEditWindow      = 30 * 24 * time.Hour
	DefaultReviewReportThreshold = 5

	DefaultLedgerMaxRetries = 3

	DefaultNotifyTimeout      = 5 * time.Second
	DefaultBookingEventsTopic = "booking-events"

	DefaultStatsCacheTTL = 1 * time.Minute
	DefaultCacheTimeout  = 500 * time.Millisecond
	DefaultStatsMonths   = 12
)
