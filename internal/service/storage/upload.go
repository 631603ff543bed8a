package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/scanner"
)

// ErrEmptyImage is returned when an upload carries no bytes.
var ErrEmptyImage = errors.New("no image received")

// UploadStore writes uploaded frames to the upload directory and keeps only
// the newest few images there.
type UploadStore struct {
	dir    string
	retain int
	mu     sync.Mutex
	logger *logger.Logger
	now    func() time.Time
	last   int64
}

// NewUploadStore creates an UploadStore for cfg.UploadDir.
func NewUploadStore(cfg *config.Config, logger *logger.Logger) *UploadStore {
	return &UploadStore{
		dir:    cfg.UploadDir,
		retain: cfg.RetainImages,
		logger: logger,
		now:    time.Now,
	}
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string {
	return s.dir
}

// EnsureDir creates the upload directory if it does not exist.
func (s *UploadStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %w", s.dir, err)
	}
	return nil
}

// Save stores data as image_<unix-ms>.jpg and prunes older images.
func (s *UploadStore) Save(data []byte) (scanner.ImageRef, error) {
	if len(data) == 0 {
		return scanner.ImageRef{}, ErrEmptyImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.EnsureDir(); err != nil {
		return scanner.ImageRef{}, err
	}

	// Two uploads within the same millisecond must not overwrite each other.
	stamp := s.now().UnixMilli()
	if stamp <= s.last {
		stamp = s.last + 1
	}
	s.last = stamp

	name := fmt.Sprintf("image_%d.jpg", stamp)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return scanner.ImageRef{}, fmt.Errorf("failed to save image %s: %w", name, err)
	}
	s.logger.Info("✅ Image saved: %s", path)

	info, err := os.Stat(path)
	if err != nil {
		return scanner.ImageRef{}, fmt.Errorf("failed to stat image %s: %w", name, err)
	}

	if _, err := s.prune(); err != nil {
		s.logger.Warning("Failed to prune %s: %v", s.dir, err)
	}

	return scanner.ImageRef{Path: path, Name: name, ModTime: info.ModTime()}, nil
}

// Prune removes every image beyond the newest retain and returns the removed names.
func (s *UploadStore) Prune() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune()
}

func (s *UploadStore) prune() ([]string, error) {
	images, err := scanner.List(s.dir)
	if err != nil {
		return nil, err
	}
	if len(images) <= s.retain {
		return nil, nil
	}

	var removed []string
	for _, img := range images[s.retain:] {
		if err := os.Remove(img.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Error deleting image %s: %v", img.Name, err)
			continue
		}
		removed = append(removed, img.Name)
	}

	if len(removed) > 0 {
		s.logger.Info("Pruned %d old image(s) from %s", len(removed), s.dir)
	}
	return removed, nil
}
