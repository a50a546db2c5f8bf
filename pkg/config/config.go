package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"cospace/pkg/client"
	"cospace/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Scheduling engine knobs.
	MinBookingDuration       time.Duration
	MaxBookingDuration       time.Duration
	RecurrenceMaxOccurrences int
	LockWaitTimeout          time.Duration
	VersionRetryLimit        int
	PendingTTL               time.Duration
	ExpirySweepSpec          string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MinBookingDuration:       getEnvDuration(EnvMinBookingDuration, DefaultMinBookingDuration),
		MaxBookingDuration:       getEnvDuration(EnvMaxBookingDuration, DefaultMaxBookingDuration),
		RecurrenceMaxOccurrences: getEnvNum(EnvRecurrenceMaxOccurrences, DefaultRecurrenceMaxOccurrences),
		LockWaitTimeout:          getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		VersionRetryLimit:        getEnvNum(EnvVersionRetryLimit, DefaultVersionRetryLimit),
		PendingTTL:               getEnvDuration(EnvPendingTTL, DefaultPendingTTL),
		ExpirySweepSpec:          getEnvStr(EnvExpirySweepSpec, DefaultExpirySweepSpec),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.FormatJSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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

	if cfg.MinBookingDuration <= 0 {
		errors = append(errors, fmt.Sprintf("MinBookingDuration must be positive, got: %s", cfg.MinBookingDuration))
	}
	if cfg.MaxBookingDuration < cfg.MinBookingDuration {
		errors = append(errors, fmt.Sprintf("MaxBookingDuration (%s) must be >= MinBookingDuration (%s)", cfg.MaxBookingDuration, cfg.MinBookingDuration))
	}
	if cfg.RecurrenceMaxOccurrences < 1 {
		errors = append(errors, fmt.Sprintf("RecurrenceMaxOccurrences must be at least 1, got: %d", cfg.RecurrenceMaxOccurrences))
	}
	if cfg.LockWaitTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockWaitTimeout must be positive, got: %s", cfg.LockWaitTimeout))
	}
	if cfg.VersionRetryLimit < 1 {
		errors = append(errors, fmt.Sprintf("VersionRetryLimit must be at least 1, got: %d", cfg.VersionRetryLimit))
	}
	if cfg.PendingTTL <= 0 {
		errors = append(errors, fmt.Sprintf("PendingTTL must be positive, got: %s", cfg.PendingTTL))
	}
	if cfg.ExpirySweepSpec == "" {
		errors = append(errors, "ExpirySweepSpec cannot be empty")
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
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"min_booking_duration", cfg.MinBookingDuration,
		"max_booking_duration", cfg.MaxBookingDuration,
		"recurrence_max_occurrences", cfg.RecurrenceMaxOccurrences,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"version_retry_limit", cfg.VersionRetryLimit,
		"pending_ttl", cfg.PendingTTL,
		"expiry_sweep_spec", cfg.ExpirySweepSpec,
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
