// Package config содержит логику чтения конфигурации сервисов бронирования.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultLoyaltyAddress     = "http://localhost:8050"
	defaultReservationAddress = "http://localhost:8070"
	defaultIdempotencyTTL     = 24 * time.Hour
)

// Config содержит параметры конфигурации сервиса.
// Каждый из трёх бинарников использует только нужные ему поля.
type Config struct {
	RunAddress                string        `env:"RUN_ADDRESS"`
	DatabaseURI               string        `env:"DATABASE_URI"`
	LoyaltyServiceAddress     string        `env:"LOYALTY_SERVICE_ADDRESS"`
	ReservationServiceAddress string        `env:"RESERVATION_SERVICE_ADDRESS"`
	UpstreamTimeout           time.Duration `env:"UPSTREAM_TIMEOUT"`
	RedisAddress              string        `env:"REDIS_ADDRESS"`
	IdempotencyTTL            time.Duration `env:"IDEMPOTENCY_TTL"`
	ReconcileInterval         time.Duration `env:"RECONCILE_INTERVAL"`
	OTelEndpoint              string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Parse считывает конфигурацию из файла .env, переменных окружения и флагов командной строки.
// Переменные окружения имеют приоритет над флагами.
func Parse(defaultRunAddress string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory storage when empty")
	flag.StringVar(&cfg.LoyaltyServiceAddress, "l", defaultLoyaltyAddress, "loyalty service address")
	flag.StringVar(&cfg.ReservationServiceAddress, "r", defaultReservationAddress, "reservation service address")
	flag.DurationVar(&cfg.UpstreamTimeout, "t", 0, "timeout for calls to other services, 0 disables it")
	flag.StringVar(&cfg.RedisAddress, "redis", "", "redis address for idempotency keys")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.LoyaltyServiceAddress != "" {
		cfg.LoyaltyServiceAddress = envCfg.LoyaltyServiceAddress
	}
	if envCfg.ReservationServiceAddress != "" {
		cfg.ReservationServiceAddress = envCfg.ReservationServiceAddress
	}
	if envCfg.UpstreamTimeout != 0 {
		cfg.UpstreamTimeout = envCfg.UpstreamTimeout
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	return cfg, nil
}
