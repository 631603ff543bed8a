// Package strategy builds the named comparison strategies from configuration.
package strategy

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/service/vision"
	"changewatch/internal/service/vision/opencv"
	"changewatch/internal/similarity"
)

// Strategy names accepted in configuration.
const (
	ORB    = "orb"
	ORBMin = "orb-min"
	Pixels = "pixels"
	DNN    = "dnn"
	PHash  = "phash"
)

type builder func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error)

var builders = map[string]builder{
	ORB: func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
		return similarity.Strategy{
			Name:      ORB,
			Extractor: opencv.NewORBExtractor(logger),
			Metric:    similarity.MatchRatio{Normalizer: similarity.NormalizeMax},
			Threshold: similarity.DefaultMatchMaxThreshold,
		}, nil
	},
	ORBMin: func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
		return similarity.Strategy{
			Name:      ORBMin,
			Extractor: opencv.NewORBExtractor(logger),
			Metric:    similarity.MatchRatio{Normalizer: similarity.NormalizeMin},
			Threshold: similarity.DefaultMatchMinThreshold,
		}, nil
	},
	Pixels: func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
		return similarity.Strategy{
			Name:      Pixels,
			Extractor: vision.NewPixelExtractor(cfg.PixelSize),
			Metric:    similarity.Cosine{},
			Threshold: similarity.DefaultCosineThreshold,
		}, nil
	},
	DNN: func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
		extractor, err := opencv.NewDNNExtractor(cfg.ModelPath, cfg.ModelConfigPath, cfg.ModelOutputLayer, logger)
		if err != nil {
			return similarity.Strategy{}, err
		}
		return similarity.Strategy{
			Name:      DNN,
			Extractor: extractor,
			Metric:    similarity.Cosine{},
			Threshold: similarity.DefaultCosineThreshold,
		}, nil
	},
	PHash: func(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
		return similarity.Strategy{
			Name:      PHash,
			Extractor: vision.HashExtractor{},
			Metric:    similarity.HashMatch{},
			Threshold: similarity.DefaultHashThreshold,
		}, nil
	},
}

// Names lists the accepted strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the strategy named in cfg, applying cfg.Threshold when set.
func New(cfg *config.Config, logger *logger.Logger) (similarity.Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Strategy))
	build, ok := builders[name]
	if !ok {
		return similarity.Strategy{}, fmt.Errorf("unknown strategy %q (available: %s)", cfg.Strategy, strings.Join(Names(), ", "))
	}

	s, err := build(cfg, logger)
	if err != nil {
		return similarity.Strategy{}, fmt.Errorf("failed to build strategy %s: %w", name, err)
	}
	if cfg.Threshold != nil {
		s = s.WithThreshold(*cfg.Threshold)
	}
	return s, nil
}

// Close releases resources held by the strategy's extractor, if any.
func Close(s similarity.Strategy) error {
	if closer, ok := s.Extractor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
