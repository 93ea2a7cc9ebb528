// internal/config/config.go
package config

import (
	"os"
	"time"

	"github.com/shopspring/decimal"
)

type AppConfig struct {
	// Server
	HTTPAddr   string
	AppBaseURL string

	// Storage
	RedisAddr string
	RedisPass string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Flutterwave
	FlwBaseURL     string
	FlwSecretKey   string
	FlwWebhookHash string
	FlwTimeout     time.Duration

	// Settlement
	Currency              string
	OwnerCommissionRate   decimal.Decimal
	DefaultCommissionRate decimal.Decimal
	ProCommissionRate     decimal.Decimal

	// Admin bootstrap
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:   getEnv("HTTP_ADDR", ":8000"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    720 * time.Hour,

		FlwBaseURL:     getEnv("FLW_BASE_URL", "https://api.flutterwave.com/v3"),
		FlwSecretKey:   getEnv("FLW_SECRET_KEY", ""),
		FlwWebhookHash: getEnv("FLW_WEBHOOK_HASH", ""),
		FlwTimeout:     15 * time.Second,

		Currency:              getEnv("PLATFORM_CURRENCY", "XAF"),
		OwnerCommissionRate:   getEnvRate("PLATFORM_OWNER_COMMISSION_RATE", "0"),
		DefaultCommissionRate: getEnvRate("PLATFORM_COMMISSION_RATE", "0.10"),
		ProCommissionRate:     getEnvRate("PLATFORM_PRO_COMMISSION_RATE", "0.05"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvRate(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		return decimal.RequireFromString(fallback)
	}
	return rate
}
