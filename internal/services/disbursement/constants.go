package disbursement

const (
	DefaultWorkers              = 4
	DefaultReferenceMaxAttempts = 3
	DefaultMerchantBatchSize    = 100

	// referenceRandomBytes is the entropy appended to every reference.
	referenceRandomBytes = 4
)
