package vision

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"changewatch/internal/similarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient draws a diagonal gradient, optionally with a bright square in the corner.
func gradient(size int, withSquare bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8((x + y) * 255 / (2 * size))
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	if withSquare {
		for y := 0; y < size/2; y++ {
			for x := 0; x < size/2; x++ {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	return path
}

func TestPixelExtractor_VectorShape(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", gradient(100, false))

	set, err := NewPixelExtractor(16).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, set.Vector, 16*16*3)
	for _, v := range set.Vector {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPixelExtractor_CosineOfSameImageIsOne(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "a.jpg", gradient(80, false))
	extractor := NewPixelExtractor(32)

	a, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	b, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)

	score, err := similarity.Cosine{}.Score(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestPixelExtractor_ChangedImageScoresLower(t *testing.T) {
	dir := t.TempDir()
	before := writePNG(t, dir, "before.png", gradient(80, false))
	after := writePNG(t, dir, "after.png", gradient(80, true))
	extractor := NewPixelExtractor(32)

	a, err := extractor.Extract(context.Background(), before)
	require.NoError(t, err)
	b, err := extractor.Extract(context.Background(), after)
	require.NoError(t, err)

	score, err := similarity.Cosine{}.Score(a, b)
	require.NoError(t, err)
	assert.Less(t, score, 0.999)
}

func TestPixelExtractor_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not a jpeg"), 0644))

	_, err := NewPixelExtractor(8).Extract(context.Background(), corrupt)
	assert.Error(t, err)

	_, err = NewPixelExtractor(8).Extract(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPixelExtractor(8).Extract(ctx, corrupt)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashExtractor_SameImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", gradient(64, false))

	a, err := HashExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, a.Binary, 1)
	assert.Len(t, a.Binary[0], 8)

	b, err := HashExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)

	score, err := similarity.HashMatch{}.Score(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestHashExtractor_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0644))

	_, err := HashExtractor{}.Extract(context.Background(), path)
	assert.Error(t, err)
}
