package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrDuplicatePeriod     = errors.New("disbursement already exists for merchant and date")
	ErrDuplicateReference  = errors.New("disbursement reference already taken")
	ErrOrdersAlreadyLinked = errors.New("orders already linked to a disbursement")
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint violation and,
// when the driver exposes it, the name of the violated constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}
