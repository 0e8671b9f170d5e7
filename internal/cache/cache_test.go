package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/sampling"
)

// pngBytes encodes a blank image of the given size
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

// staticLoader returns a loader producing a PNG of the given size and counting its calls
func staticLoader(t *testing.T, width, height int, calls *atomic.Int32) Loader {
	payload := pngBytes(t, width, height)
	return func(_ context.Context) (*MediaItem, error) {
		calls.Add(1)
		return &MediaItem{
			Payload:    payload,
			PostedAt:   time.Date(2024, 10, 7, 9, 0, 0, 0, time.UTC),
			Attributes: Attributes{"photoId": "1"},
		}, nil
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "positive size", size: 10},
		{name: "zero size", size: 0, wantErr: true},
		{name: "negative size", size: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tt.size)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Zero(t, c.Count())
		})
	}
}

func TestGetOrLoad_DecodesDimensions(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	var calls atomic.Int32
	item, err := c.GetOrLoad(context.Background(), "https://img.example.com/1_b.jpg", staticLoader(t, 64, 48, &calls))
	require.NoError(t, err)

	assert.Equal(t, "https://img.example.com/1_b.jpg", item.Locator)
	assert.Equal(t, 64, item.Width)
	assert.Equal(t, 48, item.Height)
	assert.Equal(t, 1, c.Count())

	got, ok := c.Get("https://img.example.com/1_b.jpg")
	require.True(t, ok)
	assert.Same(t, item, got)

	got, ok = c.GetByKey(item.Key())
	require.True(t, ok)
	assert.Same(t, item, got)
}

func TestGetOrLoad_CachedItemSkipsLoader(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	var calls atomic.Int32
	loader := staticLoader(t, 8, 8, &calls)
	for range 3 {
		_, err := c.GetOrLoad(context.Background(), "locator", loader)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrLoad_ConcurrentCallersShareOneLoad(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	payload := pngBytes(t, 4, 4)
	release := make(chan struct{})
	var calls atomic.Int32
	loader := func(_ context.Context) (*MediaItem, error) {
		calls.Add(1)
		<-release
		return &MediaItem{Payload: payload}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*MediaItem, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := c.GetOrLoad(context.Background(), "shared", loader)
			assert.NoError(t, err)
			results[i] = item
		}()
	}

	// let every caller join the in-flight load before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, item := range results {
		assert.Same(t, results[0], item)
	}
}

func TestGetOrLoad_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	var calls atomic.Int32
	failing := func(_ context.Context) (*MediaItem, error) {
		calls.Add(1)
		return nil, errors.New("connection reset")
	}

	_, err = c.GetOrLoad(context.Background(), "flaky", failing)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "flaky", loadErr.Locator)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, c.Count())

	_, err = c.GetOrLoad(context.Background(), "flaky", failing)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var okCalls atomic.Int32
	_, err = c.GetOrLoad(context.Background(), "flaky", staticLoader(t, 2, 2, &okCalls))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count())
}

func TestGetOrLoad_UndecodablePayload(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	_, err = c.GetOrLoad(context.Background(), "garbage", func(_ context.Context) (*MediaItem, error) {
		return &MediaItem{Payload: []byte("not an image")}, nil
	})

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Zero(t, c.Count())
}

func TestGetOrLoad_CancelledWaiter(t *testing.T) {
	t.Parallel()

	c, err := New(5)
	require.NoError(t, err)

	payload := pngBytes(t, 4, 4)
	release := make(chan struct{})
	loader := func(_ context.Context) (*MediaItem, error) {
		<-release
		return &MediaItem{Payload: payload}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctx, "slow", loader)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// the abandoned load still completes and populates the cache
	close(release)
	assert.Eventually(t, func() bool { return c.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestCache_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	c, err := New(3)
	require.NoError(t, err)

	var calls atomic.Int32
	loader := staticLoader(t, 2, 2, &calls)
	for i := range 4 {
		_, err := c.GetOrLoad(context.Background(), fmt.Sprintf("item-%d", i), loader)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, c.Count())
	_, ok := c.Get("item-0")
	assert.False(t, ok, "oldest item should have been evicted")
	for i := 1; i < 4; i++ {
		_, ok := c.Get(fmt.Sprintf("item-%d", i))
		assert.True(t, ok)
	}
}

func TestCache_Sample(t *testing.T) {
	t.Parallel()

	c, err := New(20, WithRandom(sampling.NewSeededRandom(7)))
	require.NoError(t, err)

	var calls atomic.Int32
	loader := staticLoader(t, 2, 2, &calls)
	for i := range 10 {
		_, err := c.GetOrLoad(context.Background(), fmt.Sprintf("item-%d", i), loader)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{name: "subset", n: 4, expected: 4},
		{name: "all", n: 10, expected: 10},
		{name: "more than cached", n: 25, expected: 10},
		{name: "none", n: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Sample(tt.n)
			assert.Len(t, got, tt.expected)

			seen := make(map[string]bool)
			for _, item := range got {
				assert.False(t, seen[item.Locator], "duplicate %s", item.Locator)
				seen[item.Locator] = true
			}
		})
	}
}

func TestAttributes_Keys(t *testing.T) {
	t.Parallel()

	attrs := Attributes{"photosetId": "2", "dateTaken": "N/A", "photoId": "1", "dateAdded": "x"}
	assert.Equal(t, []string{"dateAdded", "dateTaken", "photoId", "photosetId"}, attrs.Keys())
	assert.Empty(t, Attributes(nil).Keys())
}
