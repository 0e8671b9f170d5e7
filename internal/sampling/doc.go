// Package sampling provides the random selection policies used by the mosaic display.
//
// Two policies are provided:
//
//   - Pool draws a uniform random subset, without replacement, from an immutable slice.
//     The source slice is never reordered or shrunk; indices are drawn into a fresh selection.
//   - HighlightSet draws grid cell indices without repeating a cell within one display cycle.
//     Once every cell has been drawn, Draw reports ErrExhausted instead of retrying forever.
//
// Both policies take a Random so callers and tests can control the random source.
package sampling
