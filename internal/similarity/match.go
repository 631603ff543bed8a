package similarity

import (
	"fmt"
	"math/bits"
	"sort"
)

// Normalizer selects the denominator of a match ratio.
type Normalizer int

const (
	// NormalizeMax divides by the larger keypoint count.
	NormalizeMax Normalizer = iota
	// NormalizeMin divides by the smaller keypoint count.
	NormalizeMin
)

func (n Normalizer) String() string {
	switch n {
	case NormalizeMin:
		return "min"
	default:
		return "max"
	}
}

func (n Normalizer) denominator(a, b int) int {
	if n == NormalizeMin {
		return min(a, b)
	}
	return max(a, b)
}

// Match is a cross-checked pair of descriptor rows.
type Match struct {
	QueryIdx int
	TrainIdx int
	Distance int
}

// MatchRatio scores local binary descriptors by the share of keypoints that
// survive cross-checked nearest-neighbour matching under Hamming distance.
type MatchRatio struct {
	Normalizer Normalizer
}

func (m MatchRatio) Name() string {
	return "match-ratio-" + m.Normalizer.String()
}

// Score returns len(matches) / normalizer(count(a), count(b)), or 0 when the
// denominator is zero.
func (m MatchRatio) Score(a, b *DescriptorSet) (float64, error) {
	if a == nil || b == nil {
		return 0, ErrMissingDescriptors
	}

	denominator := m.Normalizer.denominator(a.count(), b.count())
	if denominator == 0 {
		return 0, nil
	}

	matches, err := CrossCheckMatches(a.Binary, b.Binary)
	if err != nil {
		return 0, err
	}

	return float64(len(matches)) / float64(denominator), nil
}

// CrossCheckMatches brute-forces nearest neighbours in both directions and keeps
// only mutual pairs. Ties go to the lowest index, so swapping the arguments
// yields the same pairs with the indices swapped. Matches are sorted by distance.
func CrossCheckMatches(query, train [][]byte) ([]Match, error) {
	if len(query) == 0 || len(train) == 0 {
		return nil, nil
	}

	width := len(query[0])
	for _, rows := range [][][]byte{query, train} {
		for i, row := range rows {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d bytes, want %d: %w", i, len(row), width, ErrDimensionMismatch)
			}
		}
	}

	forward := nearest(query, train)
	backward := nearest(train, query)

	var matches []Match
	for q, t := range forward {
		if backward[t.index] == (neighbour{index: q, distance: t.distance}) {
			matches = append(matches, Match{QueryIdx: q, TrainIdx: t.index, Distance: t.distance})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

type neighbour struct {
	index    int
	distance int
}

// nearest returns, for every row in from, its closest row in to.
func nearest(from, to [][]byte) []neighbour {
	result := make([]neighbour, len(from))
	for i, row := range from {
		best := neighbour{index: -1}
		for j, candidate := range to {
			d := Hamming(row, candidate)
			if best.index < 0 || d < best.distance {
				best = neighbour{index: j, distance: d}
			}
		}
		result[i] = best
	}
	return result
}

// Hamming counts differing bits between two equally sized byte slices.
func Hamming(a, b []byte) int {
	var distance int
	for i := range a {
		distance += bits.OnesCount8(a[i] ^ b[i])
	}
	return distance
}
