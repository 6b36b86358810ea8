package disbursement

import (
	"errors"

	"disburse/internal/repositories"
)

var (
	// ErrDuplicatePeriod means a disbursement for the merchant and date is
	// already committed. The attempted unit was rolled back.
	ErrDuplicatePeriod = repositories.ErrDuplicatePeriod

	ErrReferenceExhausted = errors.New("no unique disbursement reference after retries")
)
