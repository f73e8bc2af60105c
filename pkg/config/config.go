package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	PaymentMode         string
	PaymentClientID     string
	PaymentClientSecret string
	DefaultCurrency     string

	PendingOrderTTL time.Duration
	NavCacheTTL     time.Duration
	StatsCacheTTL   time.Duration

	ReorderLevel  int
	MaxStockLevel int
}

// Load reads .env if present, then the environment, falling back to
// defaults that match a local docker-compose setup.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "program"),
		DBPassword: getEnv("DB_PASSWORD", "test"),
		DBName:     getEnv("DB_NAME", "bookstore"),

		PaymentMode:         getEnv("PAYMENT_MODE", "sandbox"),
		PaymentClientID:     getEnv("PAYMENT_CLIENT_ID", ""),
		PaymentClientSecret: getEnv("PAYMENT_CLIENT_SECRET", ""),
		DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "INR"),

		PendingOrderTTL: getDuration("PENDING_ORDER_TTL", 30*time.Minute),
		NavCacheTTL:     getDuration("NAV_CACHE_TTL", 30*time.Minute),
		StatsCacheTTL:   getDuration("STATS_CACHE_TTL", time.Hour),

		ReorderLevel:  getInt("REORDER_LEVEL", 10),
		MaxStockLevel: getInt("MAX_STOCK_LEVEL", 100),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
