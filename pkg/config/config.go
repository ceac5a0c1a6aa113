package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Checkout commit modes.
const (
	CheckoutAtomic = "atomic"
	CheckoutLegacy = "legacy"
)

type Config struct {
	AppEnv string
	Port   string

	DatabaseURL string

	JWTSecret  string
	SessionTTL time.Duration

	RedisURL string
	CartTTL  time.Duration

	KafkaBrokers []string

	CheckoutMode      string
	LowStockThreshold int

	StoreName    string
	StoreAddress string
	StorePhone   string

	OwnerEmail    string
	OwnerPassword string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds the config from the environment only.
func FromEnv() *Config {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "production"),
		Port:              getEnv("PORT", "3000"),
		DatabaseURL:       databaseURL(),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		RedisURL:          getEnv("REDIS_URL", ""),
		CartTTL:           time.Duration(getEnvInt("CART_TTL_MINUTES", 720)) * time.Minute,
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		CheckoutMode:      strings.ToLower(getEnv("CHECKOUT_MODE", CheckoutAtomic)),
		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		StoreName:         getEnv("STORE_NAME", "Frendo POS"),
		StoreAddress:      getEnv("STORE_ADDRESS", "Jl. Contoh No. 123"),
		StorePhone:        getEnv("STORE_PHONE", "0812-3456-7890"),
		OwnerEmail:        getEnv("OWNER_EMAIL", "owner@example.com"),
		OwnerPassword:     getEnv("OWNER_PASSWORD", "owner123"),
	}
	if cfg.CheckoutMode != CheckoutLegacy {
		cfg.CheckoutMode = CheckoutAtomic
	}
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "pos"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
