package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "cospace"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMinBookingDuration       = 15 * time.Minute
	DefaultMaxBookingDuration       = 12 * time.Hour
	DefaultRecurrenceMaxOccurrences = 52
	DefaultLockWaitTimeout          = 5 * time.Second
	DefaultVersionRetryLimit        = 3
	DefaultPendingTTL               = 10 * time.Minute
	DefaultExpirySweepSpec          = "@every 1m"

	DefaultPaginationLimit = 100
)
