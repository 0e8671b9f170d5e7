package canvas

import (
	"context"
	"fmt"
	"time"
)

// DefaultFrameRate is the number of frames per second rendered by TweenAnimator
const DefaultFrameRate = 30

// Clock is the time source of a TweenAnimator
type Clock interface {
	Now() time.Time
	// NewTicker returns a channel delivering a value every d and a function stopping it
	NewTicker(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// TweenAnimator interpolates layer properties linearly once per frame
type TweenAnimator struct {
	frameInterval time.Duration
	clock         Clock
}

// TweenOption configures a TweenAnimator
type TweenOption func(*TweenAnimator) error

// WithFrameRate sets the number of frames per second
func WithFrameRate(fps int) TweenOption {
	return func(t *TweenAnimator) error {
		if fps <= 0 {
			return fmt.Errorf("frame rate must be larger than zero, got %d", fps)
		}
		t.frameInterval = time.Second / time.Duration(fps)
		return nil
	}
}

// WithClock sets the time source
func WithClock(c Clock) TweenOption {
	return func(t *TweenAnimator) error {
		t.clock = c
		return nil
	}
}

// NewTweenAnimator creates a TweenAnimator rendering DefaultFrameRate frames per second
func NewTweenAnimator(opts ...TweenOption) (*TweenAnimator, error) {
	t := &TweenAnimator{
		frameInterval: time.Second / DefaultFrameRate,
		clock:         realClock{},
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// tween is an animation together with the property values it starts from
type tween struct {
	Animation
	fromOpacity float64
	fromBounds  Rect
}

// Run plays anims in parallel, updating every layer once per frame
func (t *TweenAnimator) Run(ctx context.Context, anims ...Animation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(anims) == 0 {
		return nil
	}

	tweens := make([]tween, len(anims))
	for i, a := range anims {
		tweens[i] = tween{Animation: a}
		if a.layer != nil {
			tweens[i].fromOpacity = a.layer.Opacity()
			tweens[i].fromBounds = a.layer.Bounds()
		}
	}

	ticks, stop := t.clock.NewTicker(t.frameInterval)
	defer stop()

	start := t.clock.Now()
	for {
		if applyFrame(tweens, t.clock.Now().Sub(start)) {
			return nil
		}
		select {
		case <-ticks:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// applyFrame sets every layer to its value at elapsed and reports whether all tweens are done
func applyFrame(tweens []tween, elapsed time.Duration) bool {
	done := true
	for _, tw := range tweens {
		p := progress(elapsed, tw.duration)
		if p < 1 {
			done = false
		}
		switch tw.kind {
		case KindFade:
			tw.layer.SetOpacity(lerp(tw.fromOpacity, tw.opacity, p))
		case KindMove:
			tw.layer.SetBounds(Rect{
				X:      lerp(tw.fromBounds.X, tw.bounds.X, p),
				Y:      lerp(tw.fromBounds.Y, tw.bounds.Y, p),
				Width:  lerp(tw.fromBounds.Width, tw.bounds.Width, p),
				Height: lerp(tw.fromBounds.Height, tw.bounds.Height, p),
			})
		}
	}
	return done
}

func progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 || elapsed >= duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(duration)
}

func lerp(from, to, p float64) float64 {
	return from + (to-from)*p
}

// InstantAnimator applies the final value of every animation immediately
type InstantAnimator struct {
	// OnRun, when set, is called with every group before it is applied.
	// A non-nil error aborts the group.
	OnRun func(ctx context.Context, anims []Animation) error
}

// Run applies anims without waiting
func (a *InstantAnimator) Run(ctx context.Context, anims ...Animation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.OnRun != nil {
		if err := a.OnRun(ctx, anims); err != nil {
			return err
		}
	}
	for _, anim := range anims {
		anim.finish()
	}
	return nil
}
