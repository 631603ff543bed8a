package similarity

import "fmt"

// HashMatch scores two perceptual hashes by the fraction of equal bits. Each
// descriptor set carries its hash as a single Binary row.
type HashMatch struct{}

func (HashMatch) Name() string {
	return "hash-match"
}

func (HashMatch) Score(a, b *DescriptorSet) (float64, error) {
	if a == nil || b == nil || len(a.Binary) == 0 || len(b.Binary) == 0 {
		return 0, ErrMissingDescriptors
	}

	ha, hb := a.Binary[0], b.Binary[0]
	if len(ha) != len(hb) || len(ha) == 0 {
		return 0, fmt.Errorf("hash sizes %d and %d: %w", len(ha), len(hb), ErrDimensionMismatch)
	}

	bitCount := len(ha) * 8
	return 1 - float64(Hamming(ha, hb))/float64(bitCount), nil
}
