package canvas

import (
	"context"
	"time"
)

// AnimationKind identifies what an Animation changes
type AnimationKind int

const (
	// KindFade changes the opacity of a layer
	KindFade AnimationKind = iota
	// KindMove changes the bounds of a layer
	KindMove
	// KindPause changes nothing and only takes time
	KindPause
)

func (k AnimationKind) String() string {
	switch k {
	case KindFade:
		return "fade"
	case KindMove:
		return "move"
	case KindPause:
		return "pause"
	default:
		return "unknown"
	}
}

// Animation is a change of one layer property over a duration
type Animation struct {
	kind     AnimationKind
	layer    Layer
	duration time.Duration
	opacity  float64
	bounds   Rect
}

// Fade animates the opacity of layer to the given value
func Fade(layer Layer, duration time.Duration, to float64) Animation {
	return Animation{kind: KindFade, layer: layer, duration: duration, opacity: clampOpacity(to)}
}

// Move animates the bounds of layer to the given rectangle
func Move(layer Layer, duration time.Duration, to Rect) Animation {
	return Animation{kind: KindMove, layer: layer, duration: duration, bounds: to}
}

// Pause waits for duration
func Pause(duration time.Duration) Animation {
	return Animation{kind: KindPause, duration: duration}
}

// Kind returns what the animation changes
func (a Animation) Kind() AnimationKind { return a.kind }

// Layer returns the animated layer, nil for a pause
func (a Animation) Layer() Layer { return a.layer }

// Duration returns how long the animation takes
func (a Animation) Duration() time.Duration { return a.duration }

// TargetOpacity returns the final opacity of a fade
func (a Animation) TargetOpacity() float64 { return a.opacity }

// TargetBounds returns the final bounds of a move
func (a Animation) TargetBounds() Rect { return a.bounds }

// finish applies the final value of the animation
func (a Animation) finish() {
	switch a.kind {
	case KindFade:
		a.layer.SetOpacity(a.opacity)
	case KindMove:
		a.layer.SetBounds(a.bounds)
	}
}

// Animator plays animations
type Animator interface {
	// Run plays anims in parallel and returns once every one of them has finished.
	// It returns ctx.Err() if the context ends first, leaving layers mid-animation.
	Run(ctx context.Context, anims ...Animation) error
}

// Sequence runs each group with a after the previous one finished
func Sequence(ctx context.Context, a Animator, groups ...[]Animation) error {
	for _, group := range groups {
		if err := a.Run(ctx, group...); err != nil {
			return err
		}
	}
	return nil
}

// Longest returns the duration of the longest animation in anims
func Longest(anims []Animation) time.Duration {
	var longest time.Duration
	for _, a := range anims {
		longest = max(longest, a.duration)
	}
	return longest
}
