package disbursement

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceGenerator_Format(t *testing.T) {
	entropy := bytes.NewReader(append([]byte{0xde, 0xad, 0xbe, 0xef}, make([]byte, 12)...))
	g := NewReferenceGeneratorFromReader(entropy)

	ref, err := g.Generate(42, jan(7))
	require.NoError(t, err)
	assert.Equal(t, "42-20230107-deadbeef", ref)
}

func TestReferenceGenerator_ShortEntropy(t *testing.T) {
	g := NewReferenceGeneratorFromReader(bytes.NewReader([]byte{1, 2}))

	_, err := g.Generate(1, jan(1))
	assert.Error(t, err)
}

func TestReferenceGenerator_Unique(t *testing.T) {
	g := NewReferenceGenerator()
	pattern := regexp.MustCompile(`^7-20230101-[0-9a-f]{8}$`)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref, err := g.Generate(7, jan(1))
		require.NoError(t, err)
		require.Regexp(t, pattern, ref)
		seen[ref] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}
