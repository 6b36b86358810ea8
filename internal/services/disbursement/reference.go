package disbursement

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ReferenceGenerator builds references of the form
// "<merchant id>-<YYYYMMDD>-<8 hex digits>".
type ReferenceGenerator struct {
	rand io.Reader
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{rand: rand.Reader}
}

// NewReferenceGeneratorFromReader draws randomness from r.
func NewReferenceGeneratorFromReader(r io.Reader) *ReferenceGenerator {
	return &ReferenceGenerator{rand: r}
}

func (g *ReferenceGenerator) Generate(merchantID uint, disbursedOn time.Time) (string, error) {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return "", fmt.Errorf("failed to read reference entropy: %w", err)
	}
	// The leading bytes of a v4 uuid carry no version or variant bits.
	suffix := hex.EncodeToString(id[:referenceRandomBytes])
	return fmt.Sprintf("%d-%s-%s", merchantID, disbursedOn.UTC().Format("20060102"), suffix), nil
}
