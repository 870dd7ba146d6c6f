package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port      string
	JWTSecret string
	UploadDir string
	Database  DatabaseConfig
	NAV       NAVConfig
	Cache     CacheConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// NAVConfig holds the ERP endpoint settings
type NAVConfig struct {
	UserURL          string // user list (login fallback + nightly pull)
	CardListURL      string // transfer order headers
	CardDetailURL    string // transfer order lines
	ItemURL          string // item lookup
	ItemVariantURL   string // item variant lookup
	StagingURL       string // iStock staging push
	Username         string
	Password         string
	TimeoutMS        int
	StagingTimeoutMS int
	MaxRetry         int
	RetryBaseMS      int
}

// CacheConfig holds the reference snapshot store settings
type CacheConfig struct {
	Path          string // sqlite file for NAV snapshots
	RetentionDays int
	Timezone      string
	CronSpec      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "istock"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		NAV: NAVConfig{
			UserURL:        os.Getenv("NAV_URL"),
			CardListURL:    os.Getenv("NAV_URL_TRANSFER_ORDER_WS"),
			CardDetailURL:  os.Getenv("NAV_URL_TRANSFER_ORDER_DETAIL_WS"),
			ItemURL:        os.Getenv("NAV_URL_ITEM_WS"),
			ItemVariantURL: os.Getenv("NAV_URL_ITEM_VARIANT_WS"),
			StagingURL:     os.Getenv("NAV_URL_ISTOCK_STAGING_WS"),
			Username:       getEnv("NAV_USER", "Pmc"),
			Password:       os.Getenv("NAV_PASS"),
			TimeoutMS:      getEnvInt("NAV_TIMEOUT_MS", 10000),
			// The legacy staging endpoint ran with an effectively unbounded
			// timeout. TODO: confirm with the NAV owners whether staging posts
			// really need it before tightening this default.
			StagingTimeoutMS: getEnvInt("NAV_STAGING_TIMEOUT_MS", 10000000),
			MaxRetry:         getEnvInt("NAV_MAX_RETRY", 3),
			RetryBaseMS:      getEnvInt("NAV_RETRY_BASE_MS", 1000),
		},
		Cache: CacheConfig{
			Path:          getEnv("NAV_CACHE_PATH", "./storage/nav-cache.db"),
			RetentionDays: getEnvInt("NAV_RETENTION_DAYS", 1),
			Timezone:      getEnv("NAV_TIMEZONE", "Asia/Bangkok"),
			CronSpec:      getEnv("NAV_CRON", "0 0 * * *"),
		},
	}
	if cfg.NAV.MaxRetry < 1 {
		cfg.NAV.MaxRetry = 1
	}
	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
