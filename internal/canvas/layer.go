package canvas

import (
	"sync"

	"github.com/google/uuid"

	"github.com/stacklok/mosaic-wall/internal/cache"
)

// Rect is an axis aligned rectangle in canvas coordinates
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layer is a visual element showing one media item
type Layer interface {
	ID() string
	Bounds() Rect
	SetBounds(Rect)
	Opacity() float64
	SetOpacity(float64)
	Media() *cache.MediaItem
}

// imageLayer is the default Layer. It is safe for concurrent use.
type imageLayer struct {
	id    string
	media *cache.MediaItem

	mu      sync.RWMutex
	bounds  Rect
	opacity float64
}

// NewLayer creates a layer showing media at bounds with the given opacity
func NewLayer(media *cache.MediaItem, bounds Rect, opacity float64) Layer {
	return &imageLayer{
		id:      uuid.NewString(),
		media:   media,
		bounds:  bounds,
		opacity: clampOpacity(opacity),
	}
}

func (l *imageLayer) ID() string {
	return l.id
}

func (l *imageLayer) Bounds() Rect {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bounds
}

func (l *imageLayer) SetBounds(r Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bounds = r
}

func (l *imageLayer) Opacity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opacity
}

func (l *imageLayer) SetOpacity(o float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opacity = clampOpacity(o)
}

func (l *imageLayer) Media() *cache.MediaItem {
	return l.media
}

func clampOpacity(o float64) float64 {
	return min(max(o, 0), 1)
}
