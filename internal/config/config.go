// Package config centralizes the environment-driven configuration.
// main loads .env via godotenv before calling Load.
package config

import (
	"os"
	"strconv"
	"time"
)

type MercadoPagoConfig struct {
	AccessToken   string
	WebhookSecret string
	BaseURL       string
}

type MidtransConfig struct {
	ServerKey    string
	IsProduction bool
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type Config struct {
	Port        string
	LogLevel    string
	AppURL      string
	DatabaseURL string
	RedisURL    string

	// AdminAPIKey guards the subscription/log admin endpoints.
	AdminAPIKey string

	// DispatchTimeout bounds each outbound webhook POST.
	DispatchTimeout time.Duration
	// SubscriptionCacheTTL bounds how long the active subscription set
	// may be served from redis.
	SubscriptionCacheTTL time.Duration

	MercadoPago MercadoPagoConfig
	Midtrans    MidtransConfig
	SMTP        SMTPConfig
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppURL:      getEnv("APP_URL", "http://localhost:8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		DispatchTimeout:      getEnvDuration("WEBHOOK_DISPATCH_TIMEOUT_SECONDS", 10*time.Second),
		SubscriptionCacheTTL: getEnvDuration("WEBHOOK_SUBSCRIPTION_CACHE_TTL_SECONDS", 60*time.Second),

		MercadoPago: MercadoPagoConfig{
			AccessToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
			WebhookSecret: os.Getenv("MERCADOPAGO_WEBHOOK_SECRET"),
			BaseURL:       os.Getenv("MERCADOPAGO_BASE_URL"),
		},
		Midtrans: MidtransConfig{
			ServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
			IsProduction: os.Getenv("MIDTRANS_IS_PRODUCTION") == "true",
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("EMAIL_FROM"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
