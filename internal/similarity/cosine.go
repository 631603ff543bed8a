package similarity

import (
	"fmt"
	"math"
)

// Cosine scores dense feature vectors by cosine similarity, i.e. one minus the
// cosine distance. Non-negative features keep the score within [0, 1].
type Cosine struct{}

func (Cosine) Name() string {
	return "cosine"
}

func (Cosine) Score(a, b *DescriptorSet) (float64, error) {
	if a == nil || b == nil || len(a.Vector) == 0 || len(b.Vector) == 0 {
		return 0, ErrMissingDescriptors
	}
	return CosineSimilarity(a.Vector, b.Vector)
}

// CosineSimilarity returns dot(a, b) / (|a| |b|). A zero-magnitude vector has no
// direction and scores 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector lengths %d and %d: %w", len(a), len(b), ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors just past 1.
	return math.Max(-1, math.Min(1, similarity)), nil
}
