package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISBURSEMENT_WORKERS", "")
	t.Setenv("DISBURSEMENT_RUN_INTERVAL", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 24*time.Hour, cfg.RunInterval)
	assert.Equal(t, 3, cfg.ReferenceMaxAttempts)
	assert.Equal(t, 1000, cfg.ImportBatchSize)
	assert.Equal(t, 30*24*time.Hour, cfg.RunReportTTL)
	assert.Error(t, cfg.ValidateServer())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISBURSEMENT_WORKERS", "16")
	t.Setenv("DISBURSEMENT_RUN_INTERVAL", "6h")
	t.Setenv("DISBURSEMENT_LOCK_TTL", "not-a-duration")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, 6*time.Hour, cfg.RunInterval)
	assert.Equal(t, time.Hour, cfg.LockTTL)
	assert.NoError(t, cfg.ValidateServer())
	assert.True(t, cfg.IsProduction())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}
