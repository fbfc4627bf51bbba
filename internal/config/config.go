// Package config содержит логику чтения конфигурации сервиса заказов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса заказов.
type Config struct {
	RunAddress   string        `env:"RUN_ADDRESS"`
	DatabaseURI  string        `env:"DATABASE_URI"`
	RedisAddress string        `env:"REDIS_ADDRESS"`
	AuthSecret   string        `env:"AUTH_SECRET"`
	AuthTTL      time.Duration `env:"AUTH_TTL"`
	CacheTTL     time.Duration `env:"CACHE_TTL"`
	LogLevel     string        `env:"LOG_LEVEL"`
	LogFile      string        `env:"LOG_FILE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами; файл .env, если он есть,
// загружается в окружение заранее.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address, empty disables cache")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing auth tokens")
	flag.DurationVar(&cfg.AuthTTL, "t", 24*time.Hour, "auth token lifetime")
	flag.DurationVar(&cfg.CacheTTL, "c", 10*time.Minute, "client profile cache TTL")
	flag.StringVar(&cfg.LogLevel, "l", "info", "log level")
	flag.StringVar(&cfg.LogFile, "f", "", "log file with rotation")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.AuthTTL <= 0 {
		return nil, fmt.Errorf("auth ttl must be positive, got %s", cfg.AuthTTL)
	}

	return cfg, nil
}
