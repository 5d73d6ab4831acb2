package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoTransactions = "MONGO_TRANSACTIONS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvTaxRate = "TAX_RATE"

	EnvRefundFullDays       = "REFUND_FULL_DAYS"
	EnvRefundPartialDays    = "REFUND_PARTIAL_DAYS"
	EnvRefundPartialPercent = "REFUND_PARTIAL_PERCENT"
	EnvRefundMinimalDays    = "REFUND_MINIMAL_DAYS"
	EnvRefundMinimalPercent = "REFUND_MINIMAL_PERCENT"

	EnvReviewEditWindow      = "REVIEW_EDIT_WINDOW"
	EnvReviewReportThreshold = "REVIEW_REPORT_THRESHOLD"

	EnvLedgerMaxRetries = "LEDGER_MAX_RETRIES"

	EnvNotifyTimeout      = "NOTIFY_TIMEOUT"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"

	EnvRedisURL      = "REDIS_URL"
	EnvStatsCacheTTL = "STATS_CACHE_TTL"
	EnvCacheTimeout  = "CACHE_TIMEOUT"
	EnvStatsMonths   = "STATS_MONTHS"
)
