package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"tourbook/pkg/client"
	"tourbook/pkg/logger"
)

type Config struct {
	ServiceName string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoTransactions bool

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	TaxRate float64

	RefundFullDays       int
	RefundPartialDays    int
	RefundPartialPercent int
	RefundMinimalDays    int
	RefundMinimalPercent int

	ReviewEditWindow      time.Duration
	ReviewReportThreshold int

	LedgerMaxRetries int

	NotifyTimeout      time.Duration
	BookingEventsTopic string

	RedisURL      string
	StatsCacheTTL time.Duration
	CacheTimeout  time.Duration
	StatsMonths   int

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration for serviceName from the environment and
// exits the process when it is invalid.
func Load(serviceName string) *Config {
	cfg := FromEnv(serviceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoTransactions: getEnvBool(EnvMongoTransactions, DefaultMongoTransactions),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		TaxRate: getEnvFloat(EnvTaxRate, DefaultTaxRate),

		RefundFullDays:       getEnvNum(EnvRefundFullDays, DefaultRefundFullDays),
		RefundPartialDays:    getEnvNum(EnvRefundPartialDays, DefaultRefundPartialDays),
		RefundPartialPercent: getEnvNum(EnvRefundPartialPercent, DefaultRefundPartialPercent),
		RefundMinimalDays:    getEnvNum(EnvRefundMinimalDays, DefaultRefundMinimalDays),
		RefundMinimalPercent: getEnvNum(EnvRefundMinimalPercent, DefaultRefundMinimalPercent),

		ReviewEditWindow:      getEnvDuration(EnvReviewEditWindow, DefaultReviewEditWindow),
		ReviewReportThreshold: getEnvNum(EnvReviewReportThreshold, DefaultReviewReportThreshold),

		LedgerMaxRetries: getEnvNum(EnvLedgerMaxRetries, DefaultLedgerMaxRetries),

		NotifyTimeout:      getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),

		RedisURL:      getEnvStr(EnvRedisURL, ""),
		StatsCacheTTL: getEnvDuration(EnvStatsCacheTTL, DefaultStatsCacheTTL),
		CacheTimeout:  getEnvDuration(EnvCacheTimeout, DefaultCacheTimeout),
		StatsMonths:   getEnvNum(EnvStatsMonths, DefaultStatsMonths),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the optional cache. It is a no-op when REDIS_URL is unset.
func (cfg *Config) SetRedis() {
	if cfg.RedisURL == "" {
		cfg.Log.Info("REDIS_URL not set, stats cache stays in process")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.TaxRate < 0 || cfg.TaxRate > 1 {
		errors = append(errors, fmt.Sprintf("TaxRate must be between 0 and 1, got: %g", cfg.TaxRate))
	}

	if cfg.RefundMinimalDays < 0 {
		errors = append(errors, fmt.Sprintf("RefundMinimalDays cannot be negative, got: %d", cfg.RefundMinimalDays))
	}
	if !(cfg.RefundFullDays > cfg.RefundPartialDays && cfg.RefundPartialDays > cfg.RefundMinimalDays) {
		errors = append(errors, fmt.Sprintf("refund tiers must satisfy RefundFullDays (%d) > RefundPartialDays (%d) > RefundMinimalDays (%d)",
			cfg.RefundFullDays, cfg.RefundPartialDays, cfg.RefundMinimalDays))
	}
	if !(100 >= cfg.RefundPartialPercent && cfg.RefundPartialPercent >= cfg.RefundMinimalPercent && cfg.RefundMinimalPercent >= 0) {
		errors = append(errors, fmt.Sprintf("refund percentages must satisfy 100 >= RefundPartialPercent (%d) >= RefundMinimalPercent (%d) >= 0",
			cfg.RefundPartialPercent, cfg.RefundMinimalPercent))
	}

	if cfg.ReviewEditWindow <= 0 {
		errors = append(errors, fmt.Sprintf("ReviewEditWindow must be positive, got: %s", cfg.ReviewEditWindow))
	}
	if cfg.ReviewReportThreshold <= 0 {
		errors = append(errors, fmt.Sprintf("ReviewReportThreshold must be positive, got: %d", cfg.ReviewReportThreshold))
	}

	if cfg.LedgerMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("LedgerMaxRetries cannot be negative, got: %d", cfg.LedgerMaxRetries))
	}
	if cfg.NotifyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyTimeout must be positive, got: %s", cfg.NotifyTimeout))
	}
	if cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty")
	}

	if cfg.RedisURL != "" && !regexp.MustCompile(`^rediss?://`).MatchString(cfg.RedisURL) {
		errors = append(errors, "RedisURL must start with 'redis://' or 'rediss://'")
	}
	if cfg.StatsCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("StatsCacheTTL must be positive, got: %s", cfg.StatsCacheTTL))
	}
	if cfg.CacheTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("CacheTimeout must be positive, got: %s", cfg.CacheTimeout))
	}
	if cfg.StatsMonths <= 0 {
		errors = append(errors, fmt.Sprintf("StatsMonths must be positive, got: %d", cfg.StatsMonths))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_transactions", cfg.MongoTransactions,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"tax_rate", cfg.TaxRate,
		"refund_full_days", cfg.RefundFullDays,
		"refund_partial_days", cfg.RefundPartialDays,
		"refund_partial_percent", cfg.RefundPartialPercent,
		"refund_minimal_days", cfg.RefundMinimalDays,
		"refund_minimal_percent", cfg.RefundMinimalPercent,
		"review_edit_window", cfg.ReviewEditWindow,
		"review_report_threshold", cfg.ReviewReportThreshold,
		"ledger_max_retries", cfg.LedgerMaxRetries,
		"notify_timeout", cfg.NotifyTimeout,
		"booking_events_topic", cfg.BookingEventsTopic,
		"redis_enabled", cfg.RedisURL != "",
		"stats_cache_ttl", cfg.StatsCacheTTL,
		"cache_timeout", cfg.CacheTimeout,
		"stats_months", cfg.StatsMonths,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
