// Package scanner finds the images a comparison runs on.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrInsufficientImages is returned when a directory holds fewer than two images.
var ErrInsufficientImages = errors.New("not enough images for comparison")

// ImageRef is an image file as seen at scan time.
type ImageRef struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageFile reports whether name carries a recognized image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// List returns every image in dir, newest first. Entries removed between the
// directory listing and the stat call are skipped.
func List(dir string) ([]ImageRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	images := make([]ImageRef, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		images = append(images, ImageRef{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		if !images[i].ModTime.Equal(images[j].ModTime) {
			return images[i].ModTime.After(images[j].ModTime)
		}
		return images[i].Name > images[j].Name
	})

	return images, nil
}

// LatestPair returns the newest and second-newest images in dir.
func LatestPair(dir string) (ImageRef, ImageRef, error) {
	images, err := List(dir)
	if err != nil {
		return ImageRef{}, ImageRef{}, err
	}
	if len(images) < 2 {
		return ImageRef{}, ImageRef{}, fmt.Errorf("%s holds %d image(s): %w", dir, len(images), ErrInsufficientImages)
	}
	return images[0], images[1], nil
}
