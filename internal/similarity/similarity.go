// Package similarity reduces two image descriptor sets to a single score.
//
// Descriptor extraction lives behind the Extractor interface; this package only
// owns the metrics and the pairing of an extractor with a metric and threshold.
package similarity

import (
	"context"
	"errors"
)

var (
	// ErrMissingDescriptors is returned when either side of a comparison has no descriptors.
	ErrMissingDescriptors = errors.New("missing descriptors")
	// ErrDimensionMismatch is returned when descriptors or vectors have incompatible sizes.
	ErrDimensionMismatch = errors.New("descriptor dimensions differ")
)

// Default thresholds for the built-in strategies. A score below the threshold
// means a significant change.
const (
	// Match ratios normalized by the larger keypoint count rarely exceed 0.3
	// for the same scene.
	DefaultMatchMaxThreshold = 0.30
	// Normalizing by the smaller count yields higher ratios.
	DefaultMatchMinThreshold = 0.50
	DefaultCosineThreshold   = 0.95
	DefaultHashThreshold     = 0.90
)

// DescriptorSet is what an extractor produces for one image. Local descriptor
// strategies fill Binary (one row per keypoint), dense strategies fill Vector.
type DescriptorSet struct {
	Keypoints int
	Binary    [][]byte
	Vector    []float64
}

// count is the number of keypoints used to normalize match ratios.
func (d *DescriptorSet) count() int {
	if d.Keypoints > 0 {
		return d.Keypoints
	}
	return len(d.Binary)
}

// Extractor turns an image file into descriptors.
type Extractor interface {
	Extract(ctx context.Context, path string) (*DescriptorSet, error)
}

// Metric scores two descriptor sets.
type Metric interface {
	Name() string
	Score(a, b *DescriptorSet) (float64, error)
}

// Strategy pairs an extractor with the metric that understands its output and the
// threshold that gives the metric's score its meaning.
type Strategy struct {
	Name      string
	Extractor Extractor
	Metric    Metric
	Threshold float64
}

// WithThreshold returns a copy of s using threshold. A threshold of 0 never
// reports a change.
func (s Strategy) WithThreshold(threshold float64) Strategy {
	s.Threshold = threshold
	return s
}
