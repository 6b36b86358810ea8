// Package repotest provides an in-memory SQLite store with the production
// schema for tests that need real transactions and unique constraints.
package repotest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"disburse/internal/models"
	"disburse/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// NewDB returns a migrated database private to t. A single connection is
// used so concurrent callers serialize the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", nameReplacer.Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.Migrate(db))
	return db
}

// Merchant inserts a merchant with sensible defaults for unset fields.
func Merchant(t testing.TB, db *gorm.DB, m models.Merchant) models.Merchant {
	t.Helper()

	if m.Reference == "" {
		m.Reference = fmt.Sprintf("merchant_%d", time.Now().UnixNano())
	}
	if m.Email == "" {
		m.Email = m.Reference + "@example.com"
	}
	if m.DisbursementFrequency == "" {
		m.DisbursementFrequency = models.FrequencyDaily
	}
	if m.Currency == "" {
		m.Currency = models.DefaultCurrency
	}
	if m.LiveOn.IsZero() {
		m.LiveOn = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

// Order inserts an unlinked order for merchantID.
func Order(t testing.TB, db *gorm.DB, merchantID uint, amount int64, createdAt time.Time) models.Order {
	t.Helper()

	o := models.Order{MerchantID: merchantID, Amount: amount, CreatedAt: createdAt.UTC()}
	require.NoError(t, db.Create(&o).Error)
	return o
}

// Orders returns every order of a merchant ordered by id.
func Orders(t testing.TB, db *gorm.DB, merchantID uint) []models.Order {
	t.Helper()

	var orders []models.Order
	require.NoError(t, db.Where("merchant_id = ?", merchantID).Order("id").Find(&orders).Error)
	return orders
}

// Disbursements returns every disbursement of a merchant ordered by date.
func Disbursements(t testing.TB, db *gorm.DB, merchantID uint) []models.Disbursement {
	t.Helper()

	var ds []models.Disbursement
	require.NoError(t, db.Where("merchant_id = ?", merchantID).Order("disbursed_on, id").Find(&ds).Error)
	return ds
}
