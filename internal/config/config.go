package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the disbursement processes read from the environment.
type Config struct {
	AppEnv string
	Port   string

	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	DBMaxIdleConns  int
	DBMaxOpenConns  int
	DBConnLifetime  time.Duration
	DBConnIdleTime  time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	Workers              int
	RunInterval          time.Duration
	LockTTL              time.Duration
	ReferenceMaxAttempts int
	ImportBatchSize      int
	RunReportTTL         time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		AppEnv: GetEnv("APP_ENV", "development"),
		Port:   GetEnv("PORT", "3000"),

		DBHost:         GetEnv("DB_HOST", "localhost"),
		DBPort:         GetEnv("DB_PORT", "5432"),
		DBUser:         GetEnv("DB_USER", "postgres"),
		DBPassword:     GetEnv("DB_PASSWORD", "postgres"),
		DBName:         GetEnv("DB_NAME", "disburse"),
		DBSSLMode:      GetEnv("DB_SSLMODE", "disable"),
		DBMaxIdleConns: GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		DBConnLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),

		RedisHost:     GetEnv("REDIS_HOST", "localhost"),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),

		JWTSecret: GetEnv("JWT_SECRET", ""),

		Workers:              GetIntEnv("DISBURSEMENT_WORKERS", 4),
		RunInterval:          GetDurationEnv("DISBURSEMENT_RUN_INTERVAL", 24*time.Hour),
		LockTTL:              GetDurationEnv("DISBURSEMENT_LOCK_TTL", time.Hour),
		ReferenceMaxAttempts: GetIntEnv("REFERENCE_MAX_ATTEMPTS", 3),
		ImportBatchSize:      GetIntEnv("IMPORT_BATCH_SIZE", 1000),
		RunReportTTL:         GetDurationEnv("RUN_REPORT_TTL", 30*24*time.Hour),
	}
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "30m") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
