package canvas

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances by step every time it is read and never blocks on ticks
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *steppingClock) NewTicker(time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	close(ch)
	return ch, func() {}
}

// recordingLayer remembers every opacity it was set to
type recordingLayer struct {
	Layer
	mu        sync.Mutex
	opacities []float64
}

func (l *recordingLayer) SetOpacity(o float64) {
	l.mu.Lock()
	l.opacities = append(l.opacities, o)
	l.mu.Unlock()
	l.Layer.SetOpacity(o)
}

func newSteppingAnimator(t *testing.T, step time.Duration) *TweenAnimator {
	t.Helper()
	a, err := NewTweenAnimator(WithClock(&steppingClock{now: time.Unix(0, 0), step: step}))
	require.NoError(t, err)
	return a
}

func TestNewTweenAnimator_InvalidFrameRate(t *testing.T) {
	t.Parallel()

	_, err := NewTweenAnimator(WithFrameRate(0))
	require.Error(t, err)

	a, err := NewTweenAnimator(WithFrameRate(60))
	require.NoError(t, err)
	assert.Equal(t, time.Second/60, a.frameInterval)
}

func TestTweenAnimator_FadeInterpolatesLinearly(t *testing.T) {
	t.Parallel()

	layer := &recordingLayer{Layer: NewLayer(nil, Rect{}, 0)}
	a := newSteppingAnimator(t, 25*time.Millisecond)

	require.NoError(t, a.Run(context.Background(), Fade(layer, 100*time.Millisecond, 1)))

	require.Len(t, layer.opacities, 4)
	for i, want := range []float64{0.25, 0.5, 0.75, 1} {
		assert.InDelta(t, want, layer.opacities[i], 1e-9)
	}
}

func TestTweenAnimator_ParallelAnimationsFinishTogether(t *testing.T) {
	t.Parallel()

	fading := NewLayer(nil, Rect{}, 1)
	moving := NewLayer(nil, Rect{X: 0, Y: 0, Width: 10, Height: 10}, 1)
	a := newSteppingAnimator(t, 10*time.Millisecond)

	target := Rect{X: 100, Y: 50, Width: 200, Height: 100}
	require.NoError(t, a.Run(context.Background(),
		Fade(fading, 30*time.Millisecond, 0.3),
		Move(moving, 100*time.Millisecond, target),
		Pause(50*time.Millisecond),
	))

	assert.InDelta(t, 0.3, fading.Opacity(), 1e-9)
	assert.Equal(t, target, moving.Bounds())
}

func TestTweenAnimator_ZeroDurationAppliesImmediately(t *testing.T) {
	t.Parallel()

	layer := NewLayer(nil, Rect{}, 1)
	a := newSteppingAnimator(t, time.Second)

	require.NoError(t, a.Run(context.Background(), Fade(layer, 0, 0)))
	assert.Zero(t, layer.Opacity())

	require.NoError(t, a.Run(context.Background()))
}

func TestTweenAnimator_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("before start", func(t *testing.T) {
		t.Parallel()

		layer := NewLayer(nil, Rect{}, 1)
		a, err := NewTweenAnimator()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, a.Run(ctx, Fade(layer, time.Second, 0)), context.Canceled)
		assert.InDelta(t, 1.0, layer.Opacity(), 1e-9)
	})

	t.Run("mid animation", func(t *testing.T) {
		t.Parallel()

		layer := NewLayer(nil, Rect{}, 1)
		a, err := NewTweenAnimator(WithFrameRate(100))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		require.ErrorIs(t, a.Run(ctx, Fade(layer, time.Hour, 0)), context.DeadlineExceeded)
		assert.Greater(t, layer.Opacity(), 0.0)
	})
}

func TestSequence(t *testing.T) {
	t.Parallel()

	layer := NewLayer(nil, Rect{}, 0)
	var groups [][]Animation
	a := &InstantAnimator{OnRun: func(_ context.Context, anims []Animation) error {
		groups = append(groups, anims)
		return nil
	}}

	err := Sequence(context.Background(), a,
		[]Animation{Fade(layer, time.Second, 1)},
		[]Animation{Pause(3 * time.Second)},
		[]Animation{Fade(layer, time.Second, 0.5), Move(layer, 2*time.Second, Rect{Width: 1})},
	)
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, KindPause, groups[1][0].Kind())
	assert.Equal(t, 2*time.Second, Longest(groups[2]))
	assert.InDelta(t, 0.5, layer.Opacity(), 1e-9)
	assert.Equal(t, Rect{Width: 1}, layer.Bounds())
}

func TestSequence_StopsOnError(t *testing.T) {
	t.Parallel()

	layer := NewLayer(nil, Rect{}, 0)
	calls := 0
	a := &InstantAnimator{OnRun: func(context.Context, []Animation) error {
		calls++
		if calls == 2 {
			return context.Canceled
		}
		return nil
	}}

	err := Sequence(context.Background(), a,
		[]Animation{Fade(layer, time.Second, 1)},
		[]Animation{Fade(layer, time.Second, 0.2)},
		[]Animation{Fade(layer, time.Second, 0.4)},
	)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 1.0, layer.Opacity(), 1e-9)
}

func TestAnimationKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fade", KindFade.String())
	assert.Equal(t, "move", KindMove.String())
	assert.Equal(t, "pause", KindPause.String())
	assert.Equal(t, "unknown", AnimationKind(42).String())
}
