package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
collections:
  - id: day1
    title: Devoxx 2025 Day 1
    media:
      - id: a
        datePosted: 2025-10-06T09:00:00Z
        renditions:
          large: images/a.png
          small: https://img.example.com/a_s.jpg
      - id: b
        renditions:
          medium: /srv/photos/b.jpg
  - id: day2
    title: Devoxx 2025 Day 2
    media: []
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "photos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestStaticSource_ListCollections(t *testing.T) {
	t.Parallel()

	src, err := NewStaticSource(writeManifest(t, testManifest), 0)
	require.NoError(t, err)

	collections, err := src.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Collection{
		{ID: "day1", Title: "Devoxx 2025 Day 1", MediaCount: 2},
		{ID: "day2", Title: "Devoxx 2025 Day 2", MediaCount: 0},
	}, collections)
}

func TestStaticSource_ListMedia(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, testManifest)
	src, err := NewStaticSource(path, 0)
	require.NoError(t, err)

	refs, err := src.ListMedia(context.Background(), Collection{ID: "day1"})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "a", refs[0].ID)
	assert.Equal(t, "day1", refs[0].CollectionID)
	require.NotNil(t, refs[0].DatePosted)
	assert.Equal(t, time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC), refs[0].DatePosted.UTC())
	assert.Nil(t, refs[0].DateTaken)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "images", "a.png"), refs[0].Renditions[SizeLarge])
	assert.Equal(t, "https://img.example.com/a_s.jpg", refs[0].Renditions[SizeSmall])
	assert.Equal(t, "/srv/photos/b.jpg", refs[1].Renditions[SizeMedium])

	_, err = src.ListMedia(context.Background(), Collection{ID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in manifest")
}

func TestStaticSource_FetchMedia(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("payload"), 0600))

	src, err := NewStaticSource(writeManifest(t, testManifest), 0)
	require.NoError(t, err)

	data, err := src.FetchMedia(context.Background(), imagePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = src.FetchMedia(context.Background(), filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestStaticSource_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewStaticSource("", 0)
	require.Error(t, err)

	src, err := NewStaticSource(filepath.Join(t.TempDir(), "absent.yaml"), 0)
	require.NoError(t, err)
	_, err = src.ListCollections(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest not found")

	src, err = NewStaticSource(writeManifest(t, "collections: {broken"), 0)
	require.NoError(t, err)
	_, err = src.ListCollections(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")

	src, err = NewStaticSource(writeManifest(t, "version: 2.0.0\ncollections: []"), 0)
	require.NoError(t, err)
	_, err = src.ListCollections(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}
