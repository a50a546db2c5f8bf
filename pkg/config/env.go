package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMinBookingDuration       = "MIN_BOOKING_DURATION"
	EnvMaxBookingDuration       = "MAX_BOOKING_DURATION"
	EnvRecurrenceMaxOccurrences = "RECURRENCE_MAX_OCCURRENCES"
	EnvLockWaitTimeout          = "LOCK_WAIT_TIMEOUT"
	EnvVersionRetryLimit        = "VERSION_RETRY_LIMIT"
	EnvPendingTTL               = "PENDING_TTL"
	EnvExpirySweepSpec          = "EXPIRY_SWEEP_SPEC"
)
