package mosaic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/mosaic-wall/internal/cache"
	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/sampling"
	"github.com/stacklok/mosaic-wall/internal/stepengine"
	"github.com/stacklok/mosaic-wall/internal/telemetry"
)

// DataProviderName is the name the content source is registered under in the machine context
const DataProviderName = "photos"

// Animation timings
const (
	fadeInDuration  = 300 * time.Millisecond
	dimDuration     = time.Second
	holdDuration    = 3 * time.Second
	fadeOutDuration = 500 * time.Millisecond

	dimmedOpacity = 0.3
)

// ContentSource is the read-only view of the cached media
type ContentSource interface {
	Count() int
	Sample(n int) []*cache.MediaItem
}

// Step is the mosaic reveal step
type Step struct {
	cfg      config.MosaicConfig
	animator canvas.Animator
	rng      sampling.Random
	metrics  *telemetry.MosaicMetrics
	tracer   trace.Tracer

	highlights *sampling.HighlightSet

	mu    sync.RWMutex
	state State
}

// Option is a function that configures the step
type Option func(*Step)

// WithRandom sets the random source used to sample media and draw highlights
func WithRandom(rng sampling.Random) Option {
	return func(s *Step) {
		s.rng = rng
	}
}

// WithMetrics sets the metrics recorded for every cycle
func WithMetrics(m *telemetry.MosaicMetrics) Option {
	return func(s *Step) {
		s.metrics = m
	}
}

// WithTracerProvider sets the tracer provider used to trace cycles
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Step) {
		if tp != nil {
			s.tracer = tp.Tracer(telemetry.MosaicTracerName)
		}
	}
}

// New creates a mosaic step from cfg playing its animations on animator
func New(cfg *config.MosaicConfig, animator canvas.Animator, opts ...Option) (*Step, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: mosaic config is required", config.ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
	}
	if err := sampling.ValidateHighlights(cfg.NumberOfHighlights, cfg.Columns, cfg.Rows); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
	}
	if animator == nil {
		return nil, fmt.Errorf("animator is required")
	}

	s := &Step{
		cfg:        *cfg,
		animator:   animator,
		rng:        sampling.NewRandom(),
		tracer:     noop.NewTracerProvider().Tracer(telemetry.MosaicTracerName),
		highlights: sampling.NewHighlightSet(cfg.Columns * cfg.Rows),
	}
	for _, opt := range opts {
		opt(s)
	}

	slog.Info("stepConfig",
		"columns", cfg.Columns,
		"rows", cfg.Rows,
		"minimum_images", cfg.MinimumNumberOfImagesInCacheCalculated(),
		"images_to_choose_from", cfg.NumberOfImagesToChooseFromCalculated(),
		"highlights", cfg.NumberOfHighlights,
		"percentage_for_highlight", cfg.PercentageForHighlightImage,
		"transition", cfg.TransitionDuration(),
		"skip_when_skipped", cfg.SkipWhenSkipped)
	return s, nil
}

func (*Step) Name() string {
	return "MosaicStep"
}

// State returns the phase the step is currently in
func (s *Step) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// HighlightedCount returns how many cells have been highlighted in the current cycle
func (s *Step) HighlightedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlights.Len()
}

func (s *Step) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// ShouldSkip skips the cycle when the skip token matches the configured one or when
// fewer items than the configured minimum are cached
func (s *Step) ShouldSkip(mctx stepengine.MachineContext) bool {
	skip, reason := s.gate(mctx)
	if skip {
		slog.Debug("Skipping mosaic cycle", "reason", reason)
		s.mu.Lock()
		s.highlights.Clear()
		s.mu.Unlock()
		s.metrics.RecordCycle(context.Background(), telemetry.CycleOutcomeSkipped, 0)
	}
	return skip
}

func (s *Step) gate(mctx stepengine.MachineContext) (bool, string) {
	if s.cfg.SkipWhenSkipped != "" && s.cfg.SkipWhenSkipped == mctx.SkipToken() {
		return true, "skip token"
	}

	content, ok := stepengine.Lookup[ContentSource](mctx, DataProviderName)
	if !ok {
		return true, "no content source"
	}

	minimum := s.cfg.MinimumNumberOfImagesInCacheCalculated()
	if count := content.Count(); count < minimum {
		return true, fmt.Sprintf("%d cached items, %d required", count, minimum)
	}
	return false, ""
}

// PreferredStepDuration returns the configured nominal duration, not the measured one
func (s *Step) PreferredStepDuration(stepengine.MachineContext) time.Duration {
	return s.cfg.NominalStepDuration()
}

func (*Step) RequiresPlatformThread() bool {
	return true
}

// cycle is the state owned by one execution
type cycle struct {
	canvas  canvas.Canvas
	content ContentSource
	panel   Panel
	grid    *Grid
	added   []canvas.Layer
}

// Execute runs one full cycle and proceeds exactly once, whatever the outcome. On
// failure or cancellation every layer the cycle added is removed.
func (s *Step) Execute(ctx context.Context, mctx stepengine.MachineContext) (err error) {
	defer mctx.Proceed()

	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "mosaic.cycle", trace.WithAttributes(
		attribute.Int("mosaic.columns", s.cfg.Columns),
		attribute.Int("mosaic.rows", s.cfg.Rows),
		attribute.Int("mosaic.highlights", s.cfg.NumberOfHighlights),
	))
	defer span.End()

	c := &cycle{}
	defer func() {
		outcome := telemetry.CycleOutcomeCompleted
		if err != nil {
			outcome = telemetry.CycleOutcomeFailed
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				outcome = telemetry.CycleOutcomeCancelled
			}
			s.abandon(c, err)
			telemetry.RecordError(span, err)
		}
		s.setState(StateIdle)
		s.metrics.RecordCycle(context.WithoutCancel(ctx), outcome, time.Since(started))
	}()

	highlight := 0
	for state := StateGating; state != StateDone; {
		s.setState(state)
		switch state {
		case StateGating:
			err = s.prepare(mctx, c)
			state = StateBuilding
		case StateBuilding:
			err = s.build(ctx, c)
			state = StateHighlighting
		case StateHighlighting:
			if highlight >= s.cfg.NumberOfHighlights {
				state = StateCleaningUp
				continue
			}
			err = s.highlight(ctx, c)
			highlight++
		case StateCleaningUp:
			err = s.cleanUp(ctx, c)
			state = StateDone
		}
		if err != nil {
			return err
		}
	}

	slog.Info("Mosaic cycle completed", "duration", time.Since(started), "highlights", highlight)
	return nil
}

// prepare resolves the canvas, the content source and the panel bounds
func (s *Step) prepare(mctx stepengine.MachineContext, c *cycle) error {
	c.canvas = mctx.Canvas()
	if c.canvas == nil {
		return ErrNoCanvas
	}

	content, ok := stepengine.Lookup[ContentSource](mctx, DataProviderName)
	if !ok {
		return ErrNoContent
	}
	c.content = content

	bounds := c.canvas.Bounds()
	c.panel = Panel{
		X:      s.cfg.LayoutX,
		Y:      s.cfg.LayoutY,
		Width:  bounds.Width,
		Height: bounds.Height,
	}
	if s.cfg.Width != 0 {
		c.panel.Width = s.cfg.Width
	}
	if s.cfg.Height != 0 {
		c.panel.Height = s.cfg.Height
	}
	return nil
}

// build samples the media, places one layer per cell and fades the cells in one by one
// in random order
func (s *Step) build(ctx context.Context, c *cycle) error {
	cells := s.cfg.Columns * s.cfg.Rows
	pool := c.content.Sample(max(cells, s.cfg.NumberOfImagesToChooseFromCalculated()))
	if len(pool) < cells {
		return fmt.Errorf("%w: %d items sampled for %d cells", ErrInsufficientContent, len(pool), cells)
	}

	// distinct items drawn from the pool, the pool itself stays untouched
	chosen := sampling.Pool(pool, cells, s.rng)

	c.grid = NewGrid(s.cfg.Columns, s.cfg.Rows, c.panel)
	fadeIns := make([][]canvas.Animation, 0, cells)
	for i := range c.grid.Cells {
		cell := &c.grid.Cells[i]
		cell.Layer = canvas.NewLayer(chosen[i], cell.Bounds, 0)
		c.canvas.Add(cell.Layer)
		c.added = append(c.added, cell.Layer)
		fadeIns = append(fadeIns, []canvas.Animation{canvas.Fade(cell.Layer, fadeInDuration, 1)})
	}

	return canvas.Sequence(ctx, s.animator, sampling.Shuffle(fadeIns, s.rng)...)
}

// highlight enlarges one not yet highlighted cell, holds it and puts it back
func (s *Step) highlight(ctx context.Context, c *cycle) error {
	s.mu.Lock()
	index, err := s.highlights.Draw(s.rng)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	cell := c.grid.Cells[index]
	c.canvas.ToFront(cell.Layer)

	dim := make([]canvas.Animation, 0, len(c.grid.Cells)-1)
	restore := make([]canvas.Animation, 0, len(c.grid.Cells)-1)
	for _, other := range c.grid.Cells {
		if other.Index == index {
			continue
		}
		dim = append(dim, canvas.Fade(other.Layer, dimDuration, dimmedOpacity))
		restore = append(restore, canvas.Fade(other.Layer, dimDuration, 1))
	}

	imageWidth, imageHeight := cell.Bounds.Width, cell.Bounds.Height
	if m := cell.Layer.Media(); m != nil && m.Width > 0 && m.Height > 0 {
		imageWidth, imageHeight = float64(m.Width), float64(m.Height)
	}
	target := HighlightBounds(c.panel, imageWidth, imageHeight, s.cfg.PercentageForHighlightImage)
	transition := s.cfg.TransitionDuration()

	slog.Debug("Highlighting cell", "index", index, "column", cell.Column, "row", cell.Row)
	return canvas.Sequence(ctx, s.animator,
		dim,
		[]canvas.Animation{canvas.Move(cell.Layer, transition, target)},
		[]canvas.Animation{canvas.Pause(holdDuration)},
		[]canvas.Animation{canvas.Move(cell.Layer, transition, cell.Bounds)},
		restore,
	)
}

// cleanUp fades every cell out together, then removes the layers and forgets the highlights
func (s *Step) cleanUp(ctx context.Context, c *cycle) error {
	layers := c.grid.Layers()
	fadeOuts := make([]canvas.Animation, 0, len(layers))
	for _, l := range layers {
		fadeOuts = append(fadeOuts, canvas.Fade(l, fadeOutDuration, 0))
	}
	if err := s.animator.Run(ctx, fadeOuts...); err != nil {
		return err
	}

	s.removeLayers(c)
	return nil
}

// abandon removes whatever the failed cycle left on the canvas
func (s *Step) abandon(c *cycle, err error) {
	slog.Warn("Mosaic cycle abandoned", "error", err, "layers_added", len(c.added))
	s.removeLayers(c)
}

func (s *Step) removeLayers(c *cycle) {
	if c.canvas != nil {
		for _, l := range c.added {
			c.canvas.Remove(l)
		}
	}
	c.added = nil

	s.mu.Lock()
	s.highlights.Clear()
	s.mu.Unlock()
}
