package mosaic

import "errors"

var (
	// ErrInsufficientContent is returned when the sample holds fewer items than the grid has cells
	ErrInsufficientContent = errors.New("not enough media to fill the grid")

	// ErrNoCanvas is returned when the machine context has no canvas to draw on
	ErrNoCanvas = errors.New("no canvas available")

	// ErrNoContent is returned when no content source is registered
	ErrNoContent = errors.New("no content source registered")
)
