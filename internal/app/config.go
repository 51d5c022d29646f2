package app

import (
	"os"
	"time"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string
	KafkaTopic   string

	JWTSecret string
	TokenTTL  time.Duration

	AdminEmail    string
	AdminPassword string
}

// DefaultConfig возвращает базовые адреса и секреты для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		JWTSecret:   "dev-secret-change-me",
		TokenTTL:    24 * time.Hour,
	}
}

// ReadConfig собирает конфигурацию из переменных окружения поверх дефолтов.
func ReadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ORCHID_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORCHID_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORCHID_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("ORCHID_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("ORCHID_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("ORCHID_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ORCHID_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}
	if v := os.Getenv("ORCHID_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("ORCHID_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	return cfg
}
