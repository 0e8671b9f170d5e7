// Package canvas provides the visual layer model the mosaic animates.
//
// A Canvas holds Layers in z-order. Each layer shows one media item with a
// position, a size and an opacity. Animations change those properties over
// time and are executed by an Animator: TweenAnimator interpolates linearly on
// a frame ticker, InstantAnimator jumps to the final values and is used where
// the timeline itself does not matter.
package canvas
