package vision

import (
	"context"

	"changewatch/internal/similarity"

	"github.com/nfnt/resize"
)

// PixelExtractor scales an image to Size x Size and flattens its RGB channels
// into a vector of values in [0, 1].
type PixelExtractor struct {
	Size int
}

func NewPixelExtractor(size int) PixelExtractor {
	return PixelExtractor{Size: size}
}

func (e PixelExtractor) Extract(ctx context.Context, path string) (*similarity.DescriptorSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	scaled := resize.Resize(uint(e.Size), uint(e.Size), img, resize.Bilinear)
	bounds := scaled.Bounds()

	vector := make([]float64, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			vector = append(vector, float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
		}
	}

	return &similarity.DescriptorSet{Vector: vector}, nil
}
