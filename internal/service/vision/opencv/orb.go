package opencv

import (
	"context"
	"fmt"

	"changewatch/internal/logger"
	"changewatch/internal/similarity"

	"gocv.io/x/gocv"
)

// ORBExtractor detects ORB keypoints on the grayscale image and returns their
// binary descriptors, one 32-byte row per keypoint.
type ORBExtractor struct {
	logger *logger.Logger
}

func NewORBExtractor(logger *logger.Logger) *ORBExtractor {
	return &ORBExtractor{logger: logger}
}

func (e *ORBExtractor) Extract(ctx context.Context, path string) (*similarity.DescriptorSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	orb := gocv.NewORB()
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	keypoints, descriptors := orb.DetectAndCompute(img, mask)
	defer descriptors.Close()

	set := &similarity.DescriptorSet{Keypoints: len(keypoints)}
	if descriptors.Empty() {
		// No keypoints on a flat image; the metric scores this as 0.
		if e.logger != nil {
			e.logger.Warning("No ORB keypoints found in %s", path)
		}
		return set, nil
	}

	rows, cols := descriptors.Rows(), descriptors.Cols()
	data := descriptors.ToBytes()
	if len(data) != rows*cols {
		return nil, fmt.Errorf("unexpected descriptor layout %dx%d (%d bytes) for %s", rows, cols, len(data), path)
	}

	set.Binary = make([][]byte, rows)
	for i := 0; i < rows; i++ {
		row := make([]byte, cols)
		copy(row, data[i*cols:(i+1)*cols])
		set.Binary[i] = row
	}

	return set, nil
}
