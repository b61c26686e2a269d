package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "POS"

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	APIBaseURL         string        `envconfig:"API_BASE_URL" default:"http://127.0.0.1:8000/api"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_BODY_BYTES" default:"8388608"`
	SessionIdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	APIRateLimit       float64       `envconfig:"API_RATE_LIMIT" default:"0"`
	APIBurst           int           `envconfig:"API_BURST" default:"10"`
	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	InvoiceTopic string   `envconfig:"INVOICE_TOPIC" default:"pos-invoices"`
	InvoiceGroup string   `envconfig:"INVOICE_GROUP" default:"pos-receipt-printer"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the POS_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%s_API_BASE_URL must not be empty", envPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s_REQUEST_TIMEOUT must be positive", envPrefix)
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("%s_API_RATE_LIMIT must not be negative", envPrefix)
	}
	return nil
}
