package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mosaic-wall/internal/cache"
)

func layerIDs(layers []Layer) []string {
	ids := make([]string, 0, len(layers))
	for _, l := range layers {
		ids = append(ids, l.ID())
	}
	return ids
}

func TestNewLayer(t *testing.T) {
	t.Parallel()

	media := &cache.MediaItem{Locator: "https://img/1.jpg"}
	a := NewLayer(media, Rect{X: 1, Y: 2, Width: 3, Height: 4}, 2)
	b := NewLayer(nil, Rect{}, -1)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, a.Bounds())
	assert.InDelta(t, 1.0, a.Opacity(), 1e-9, "opacity is clamped to 1")
	assert.Zero(t, b.Opacity(), "opacity is clamped to 0")
	assert.Same(t, media, a.Media())

	a.SetOpacity(0.3)
	a.SetBounds(Rect{Width: 10, Height: 10})
	assert.InDelta(t, 0.3, a.Opacity(), 1e-9)
	assert.Equal(t, Rect{Width: 10, Height: 10}, a.Bounds())
}

func TestMemoryCanvas_ZOrder(t *testing.T) {
	t.Parallel()

	c := NewMemoryCanvas(1920, 1080)
	a := NewLayer(nil, Rect{}, 1)
	b := NewLayer(nil, Rect{}, 1)
	d := NewLayer(nil, Rect{}, 1)

	c.Add(a)
	c.Add(b)
	c.Add(d)
	assert.Equal(t, []string{a.ID(), b.ID(), d.ID()}, layerIDs(c.Layers()))

	c.ToFront(a)
	assert.Equal(t, []string{b.ID(), d.ID(), a.ID()}, layerIDs(c.Layers()))

	assert.True(t, c.Remove(d))
	assert.False(t, c.Remove(d))
	assert.Equal(t, []string{b.ID(), a.ID()}, layerIDs(c.Layers()))

	// ToFront of a removed layer is ignored
	c.ToFront(d)
	assert.Len(t, c.Layers(), 2)

	assert.Equal(t, Rect{Width: 1920, Height: 1080}, c.Bounds())
}

func TestMemoryCanvas_LayersIsACopy(t *testing.T) {
	t.Parallel()

	c := NewMemoryCanvas(100, 100)
	c.Add(NewLayer(nil, Rect{}, 1))

	layers := c.Layers()
	layers[0] = nil
	require.NotNil(t, c.Layers()[0])
}

func TestMemoryCanvas_Snapshot(t *testing.T) {
	t.Parallel()

	c := NewMemoryCanvas(640, 480)
	c.SetBackground("devoxx-blue")
	media := &cache.MediaItem{Locator: "https://img/1.jpg"}
	layer := NewLayer(media, Rect{X: 5, Y: 4, Width: 96, Height: 88}, 0.3)
	c.Add(layer)

	snap := c.Snapshot()
	assert.Equal(t, "devoxx-blue", c.Background())
	assert.Equal(t, Snapshot{
		Bounds:     Rect{Width: 640, Height: 480},
		Background: "devoxx-blue",
		Layers: []LayerSnapshot{{
			ID:       layer.ID(),
			Bounds:   Rect{X: 5, Y: 4, Width: 96, Height: 88},
			Opacity:  0.3,
			MediaKey: media.Key(),
		}},
	}, snap)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mediaKey":"`+media.Key()+`"`)
}
