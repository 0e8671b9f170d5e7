package sampling

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// ErrExhausted is returned by HighlightSet.Draw when every index has already been drawn
var ErrExhausted = errors.New("all cells have already been highlighted")

// Random is the source of uniform integers used by the sampling policies
type Random interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// lockedRand guards a *rand.Rand so it can be shared between goroutines
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// NewRandom returns a goroutine-safe Random backed by a ChaCha8 generator seeded from crypto/rand
func NewRandom() Random {
	var seed [32]byte
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = crand.Read(seed[:])
	return &lockedRand{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededRandom returns a deterministic Random, intended for tests and reproducible runs
func NewSeededRandom(seed uint64) Random {
	return &lockedRand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pool returns up to n distinct elements of items chosen uniformly at random without replacement.
// If n exceeds len(items) every element is returned, in random order. items is not modified.
func Pool[T any](items []T, n int, rng Random) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	if n > len(items) {
		n = len(items)
	}

	// Partial Fisher-Yates over an index slice so the caller's slice stays untouched
	indices := make([]int, len(items))
	for i := range indices {
		indices[i] = i
	}

	selected := make([]T, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
		selected = append(selected, items[indices[i]])
	}
	return selected
}

// Shuffle returns a shuffled copy of items
func Shuffle[T any](items []T, rng Random) []T {
	return Pool(items, len(items), rng)
}

// HighlightSet tracks the cell indices already highlighted during one display cycle.
// It is not safe for concurrent use; a cycle owns its set exclusively.
type HighlightSet struct {
	size  int
	drawn map[int]struct{}
}

// NewHighlightSet creates an empty set over the index range [0, size)
func NewHighlightSet(size int) *HighlightSet {
	return &HighlightSet{
		size:  size,
		drawn: make(map[int]struct{}, size),
	}
}

// Draw picks a uniformly random index that has not been drawn yet and records it.
// Rejected candidates are redrawn; the loop terminates because the set strictly grows
// and Draw refuses to run once the whole range has been used.
func (h *HighlightSet) Draw(rng Random) (int, error) {
	if h.size <= 0 || len(h.drawn) >= h.size {
		return 0, ErrExhausted
	}
	for {
		index := rng.IntN(h.size)
		if _, seen := h.drawn[index]; seen {
			continue
		}
		h.drawn[index] = struct{}{}
		return index, nil
	}
}

// Contains reports whether index was drawn in the current cycle
func (h *HighlightSet) Contains(index int) bool {
	_, ok := h.drawn[index]
	return ok
}

// Len returns the number of indices drawn in the current cycle
func (h *HighlightSet) Len() int {
	return len(h.drawn)
}

// Size returns the size of the index range
func (h *HighlightSet) Size() int {
	return h.size
}

// Clear forgets every drawn index
func (h *HighlightSet) Clear() {
	clear(h.drawn)
}

// ValidateHighlights checks that a highlight sequence of the given length can complete without
// repeating a cell on a columns x rows grid
func ValidateHighlights(numberOfHighlights, columns, rows int) error {
	if numberOfHighlights < 0 {
		return fmt.Errorf("numberOfHighlights must not be negative, got %d", numberOfHighlights)
	}
	if cells := columns * rows; numberOfHighlights > cells {
		return fmt.Errorf("numberOfHighlights (%d) exceeds the number of grid cells (%d x %d = %d)",
			numberOfHighlights, columns, rows, cells)
	}
	return nil
}
