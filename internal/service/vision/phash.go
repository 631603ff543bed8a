package vision

import (
	"context"
	"encoding/binary"
	"fmt"

	"changewatch/internal/similarity"

	"github.com/corona10/goimagehash"
)

// HashExtractor computes a 64-bit perceptual hash and returns it as a single
// 8-byte descriptor row.
type HashExtractor struct{}

func (HashExtractor) Extract(ctx context.Context, path string) (*similarity.DescriptorSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("error calculating hash for %s: %w", path, err)
	}

	row := make([]byte, 8)
	binary.BigEndian.PutUint64(row, hash.GetHash())
	return &similarity.DescriptorSet{Keypoints: 1, Binary: [][]byte{row}}, nil
}
