package config

import (
	"errors"

	"github.com/joho/godotenv"
)

// AuditConfig is what cmd/booking-audit needs.  It is loaded separately so
// the consumer does not require the API's database or JWT settings.
type AuditConfig struct {
	Env       string
	RabbitURL string
	LogPath   string
}

func (c AuditConfig) IsProd() bool { return Config{Env: c.Env}.IsProd() }

// LoadAudit reads an optional .env file followed by the environment.
func LoadAudit() (AuditConfig, error) {
	_ = godotenv.Load()
	var errs []error
	cfg := AuditConfig{
		Env:       getenv("APP_ENV", "dev"),
		RabbitURL: must("RABBITMQ_URL", &errs),
		LogPath:   getenv("AUDIT_LOG_PATH", "logs/booking.log"),
	}
	return cfg, errors.Join(errs...)
}
