package canvas

import (
	"slices"
	"sync"
)

// Canvas is the container layers are drawn on. Layers later in the z-order are drawn on top.
type Canvas interface {
	// Add places layer on top of every other layer
	Add(layer Layer)

	// Remove takes layer off the canvas and reports whether it was present
	Remove(layer Layer) bool

	// ToFront moves layer on top of every other layer
	ToFront(layer Layer)

	// Bounds returns the size of the canvas
	Bounds() Rect

	// Layers returns the current layers in z-order, bottom first
	Layers() []Layer
}

// LayerSnapshot is a point in time copy of a layer
type LayerSnapshot struct {
	ID       string  `json:"id"`
	Bounds   Rect    `json:"bounds"`
	Opacity  float64 `json:"opacity"`
	MediaKey string  `json:"mediaKey,omitempty"`
}

// Snapshot is a point in time copy of a canvas
type Snapshot struct {
	Bounds     Rect            `json:"bounds"`
	Background string          `json:"background,omitempty"`
	Layers     []LayerSnapshot `json:"layers"`
}

// MemoryCanvas is an in-memory Canvas safe for concurrent use
type MemoryCanvas struct {
	mu         sync.RWMutex
	bounds     Rect
	background string
	layers     []Layer
}

// NewMemoryCanvas creates an empty canvas of the given size
func NewMemoryCanvas(width, height float64) *MemoryCanvas {
	return &MemoryCanvas{
		bounds: Rect{Width: width, Height: height},
	}
}

func (c *MemoryCanvas) Add(layer Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = append(c.layers, layer)
}

func (c *MemoryCanvas) Remove(layer Layer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(layer)
	if i < 0 {
		return false
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	return true
}

func (c *MemoryCanvas) ToFront(layer Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(layer)
	if i < 0 {
		return
	}
	c.layers = append(slices.Delete(c.layers, i, i+1), layer)
}

func (c *MemoryCanvas) Bounds() Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bounds
}

func (c *MemoryCanvas) Layers() []Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.layers)
}

// SetBackground sets the name of the background shown behind the layers
func (c *MemoryCanvas) SetBackground(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = name
}

// Background returns the name of the current background
func (c *MemoryCanvas) Background() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.background
}

// Snapshot copies the canvas state
func (c *MemoryCanvas) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Bounds:     c.bounds,
		Background: c.background,
		Layers:     make([]LayerSnapshot, 0, len(c.layers)),
	}
	for _, l := range c.layers {
		ls := LayerSnapshot{
			ID:      l.ID(),
			Bounds:  l.Bounds(),
			Opacity: l.Opacity(),
		}
		if m := l.Media(); m != nil {
			ls.MediaKey = m.Key()
		}
		snap.Layers = append(snap.Layers, ls)
	}
	return snap
}

func (c *MemoryCanvas) indexOf(layer Layer) int {
	return slices.IndexFunc(c.layers, func(l Layer) bool {
		return l.ID() == layer.ID()
	})
}
