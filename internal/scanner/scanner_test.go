package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates name in dir with the given modification time.
func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.Jpeg", true},
		{"a.png", true},
		{"a.PNG", true},
		{"a.gif", false},
		{"a.tiff", false},
		{"jpg", false},
		{"a.jpg.txt", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsImageFile(tt.name), "IsImageFile(%q)", tt.name)
	}
}

func TestLatestPair_NewestFirstRegardlessOfName(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Names sort opposite to modification time.
	writeFile(t, dir, "a_newest.jpg", base.Add(2*time.Minute))
	writeFile(t, dir, "z_older.png", base.Add(time.Minute))

	newest, previous, err := LatestPair(dir)
	require.NoError(t, err)
	assert.Equal(t, "a_newest.jpg", newest.Name)
	assert.Equal(t, "z_older.png", previous.Name)
	assert.Equal(t, filepath.Join(dir, "a_newest.jpg"), newest.Path)
	assert.True(t, newest.ModTime.After(previous.ModTime))
}

func TestLatestPair_PicksTwoNewestAndIgnoresOthers(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, dir, "image_1.jpg", base)
	writeFile(t, dir, "image_2.JPEG", base.Add(time.Minute))
	writeFile(t, dir, "image_3.jpg", base.Add(2*time.Minute))
	writeFile(t, dir, "notes.txt", base.Add(time.Hour))
	writeFile(t, dir, "clip.gif", base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.jpg"), 0755))

	newest, previous, err := LatestPair(dir)
	require.NoError(t, err)
	assert.Equal(t, "image_3.jpg", newest.Name)
	assert.Equal(t, "image_2.JPEG", previous.Name)
}

func TestLatestPair_EqualTimestampsAreDeterministic(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "b.jpg", ts)
	writeFile(t, dir, "a.jpg", ts)
	writeFile(t, dir, "c.jpg", ts)

	newest, previous, err := LatestPair(dir)
	require.NoError(t, err)
	assert.Equal(t, "c.jpg", newest.Name)
	assert.Equal(t, "b.jpg", previous.Name)
}

func TestLatestPair_InsufficientImages(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{"empty directory", nil},
		{"single image", []string{"only.jpg"}},
		{"one image among other files", []string{"only.png", "readme.md", "data.bin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f, time.Now())
			}

			_, _, err := LatestPair(dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientImages))
		})
	}
}

func TestLatestPair_MissingDirectory(t *testing.T) {
	_, _, err := LatestPair(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInsufficientImages), "a missing directory is not an informational outcome")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestList_OrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"one.jpg", "two.png", "three.jpeg", "four.txt"} {
		writeFile(t, dir, name, base.Add(time.Duration(i)*time.Second))
	}

	images, err := List(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Name)
	}
	assert.Equal(t, []string{"three.jpeg", "two.png", "one.jpg"}, names)
}
