package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string // application environment (dev/test/prod)
	Port        string // HTTP port to listen on
	StoreDriver string // mysql or memory

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	JWTSecret string // secret used to verify HS256 access tokens

	RequireApproval    bool           // bookings stay pending until an admin adjudicates
	CancellationWindow time.Duration  // minimum lead time for customer cancellation
	Location           *time.Location // zone show dates and times are interpreted in
	BookingIDAttempts  int            // inserts attempted before a booking id collision is fatal
	MaxSeatsPerBooking int            // seats allowed in one booking request
	TxTimeout          time.Duration  // upper bound for one booking transaction

	RabbitURL    string // AMQP url; empty disables event publication
	AuditLogPath string // file the audit consumer appends to

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// Load reads an optional .env file followed by the process environment.
// Database variables are only required when the mysql driver is selected.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Env:                getenv("APP_ENV", "dev"),
		Port:               getenv("APP_PORT", "8080"),
		StoreDriver:        strings.ToLower(getenv("STORE_DRIVER", DriverMySQL)),
		DBPass:             os.Getenv("DB_PASS"),
		RequireApproval:    envBool("BOOKING_REQUIRE_APPROVAL", false),
		CancellationWindow: envDur("BOOKING_CANCELLATION_WINDOW", 2*time.Hour),
		BookingIDAttempts:  envInt("BOOKING_ID_ATTEMPTS", 5),
		MaxSeatsPerBooking: envInt("BOOKING_MAX_SEATS", 10),
		TxTimeout:          envDur("BOOKING_TX_TIMEOUT", 5*time.Second),
		RabbitURL:          os.Getenv("RABBITMQ_URL"),
		AuditLogPath:       getenv("AUDIT_LOG_PATH", "logs/booking.log"),
		Redis:              LoadRedisConfig(),
		RateLimit:          LoadRateLimitConfig(),
		Cache:              LoadCacheConfig(),
	}

	cfg.JWTSecret = must("JWT_SECRET", &errs)
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER", &errs)
		cfg.DBHost = must("DB_HOST", &errs)
		cfg.DBPort = getenv("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME", &errs)
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	loc, err := time.LoadLocation(getenv("BOOKING_TIMEZONE", "UTC"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err))
		loc = time.UTC
	}
	cfg.Location = loc

	if cfg.BookingIDAttempts < 1 {
		cfg.BookingIDAttempts = 1
	}
	if cfg.MaxSeatsPerBooking < 1 {
		errs = append(errs, errors.New("BOOKING_MAX_SEATS must be positive"))
	}
	if cfg.CancellationWindow < 0 {
		errs = append(errs, errors.New("BOOKING_CANCELLATION_WINDOW must not be negative"))
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 5 * time.Second
	}
	return cfg, errors.Join(errs...)
}

// IsProd reports whether the application runs in production.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves a required environment variable, recording an error
// when it is unset or empty.
func must(key string, errs *[]error) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		*errs = append(*errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
