// Package mosaic implements the mosaic reveal step.
//
// A cycle fills a columns x rows grid with randomly sampled media, fades the
// cells in one after another, then highlights a number of distinct cells by
// dimming the others and enlarging the chosen one to the centre of the panel.
// Finally every cell fades out and is removed from the canvas.
//
// The cycle is an explicit state machine. Every phase is a single blocking,
// cancellable call to the animator, so cancelling the context stops the cycle
// between two frames.
package mosaic
