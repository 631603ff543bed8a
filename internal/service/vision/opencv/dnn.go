package opencv

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"changewatch/internal/logger"
	"changewatch/internal/similarity"

	"gocv.io/x/gocv"
)

const dnnInputSize = 224

// DNNExtractor runs a feature network (MobileNetV2 by default) and returns the
// output of outputLayer as a dense vector. Spatial outputs (N,C,H,W) are
// average-pooled to one value per channel.
type DNNExtractor struct {
	net         gocv.Net
	modelPath   string
	configPath  string
	outputLayer string
	logger      *logger.Logger
	mu          sync.Mutex // gocv.Net is not safe for concurrent Forward calls
}

// NewDNNExtractor loads the network from modelPath (and configPath for formats
// that need one). An empty outputLayer reads the network's final layer.
func NewDNNExtractor(modelPath, configPath, outputLayer string, logger *logger.Logger) (*DNNExtractor, error) {
	e := &DNNExtractor{
		modelPath:   modelPath,
		configPath:  configPath,
		outputLayer: outputLayer,
		logger:      logger,
	}
	if err := e.initializeNet(); err != nil {
		return nil, err
	}
	return e, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (e *DNNExtractor) initializeNet() error {
	if _, err := os.Stat(e.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", e.modelPath)
	}

	if e.configPath != "" {
		if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", e.configPath)
		}
	}

	net := gocv.ReadNet(e.modelPath, e.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	e.net = net
	if e.logger != nil {
		e.logger.Info("Feature network %s initialized", e.modelPath)
	}
	return nil
}

func (e *DNNExtractor) Extract(ctx context.Context, path string) (*similarity.DescriptorSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	// ImageNet-style input: 224x224, RGB, scaled to [-1, 1].
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(dnnInputSize, dnnInputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.net.SetInput(blob, "")
	output := e.net.Forward(e.outputLayer)
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("network produced no output for %s", path)
	}

	values, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	return &similarity.DescriptorSet{Vector: poolChannels(values, output.Size())}, nil
}

// poolChannels averages an N,C,H,W blob over H and W. Any other shape is
// returned flattened.
func poolChannels(values []float32, dims []int) []float64 {
	if len(dims) != 4 || dims[2]*dims[3] <= 1 || len(values) != dims[0]*dims[1]*dims[2]*dims[3] {
		vector := make([]float64, len(values))
		for i, v := range values {
			vector[i] = float64(v)
		}
		return vector
	}

	area := dims[2] * dims[3]
	vector := make([]float64, dims[0]*dims[1])
	for c := range vector {
		var sum float64
		for _, v := range values[c*area : (c+1)*area] {
			sum += float64(v)
		}
		vector[c] = sum / float64(area)
	}
	return vector
}
