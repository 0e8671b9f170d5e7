package stepengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultIdleDelay is how long the engine waits after a pass in which no step with a
// nonzero preferred duration ran
const DefaultIdleDelay = time.Second

// Step is one stage of the display loop
type Step interface {
	// ShouldSkip reports whether the step must not run on this pass
	ShouldSkip(mctx MachineContext) bool

	// Execute runs the step. It calls mctx.Proceed once its work is done.
	Execute(ctx context.Context, mctx MachineContext) error

	// PreferredStepDuration is the nominal duration of the step, advisory only
	PreferredStepDuration(mctx MachineContext) time.Duration

	// RequiresPlatformThread reports whether the step must run on the render goroutine
	RequiresPlatformThread() bool
}

// Named is implemented by steps that have a name to log
type Named interface {
	Name() string
}

// Engine loops over its steps until its context ends
type Engine struct {
	steps     []Step
	store     *Store
	idleDelay time.Duration
	render    chan func()
}

// Option is a function that configures the engine
type Option func(*Engine)

// WithIdleDelay sets the wait after a pass in which every step was skipped or instantaneous
func WithIdleDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.idleDelay = d
	}
}

// New creates an engine running steps against store
func New(store *Store, steps []Step, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("at least one step is required")
	}

	e := &Engine{
		steps:     steps,
		store:     store,
		idleDelay: DefaultIdleDelay,
		render:    make(chan func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the steps in order, over and over, until ctx is cancelled.
// A failing step is logged and the engine moves on to the next one. Steps reporting a
// zero preferred duration, such as the background switcher, do not pace the loop, so a
// pass made only of those and of skipped steps is followed by the idle delay.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("Starting step engine", "step_count", len(e.steps))

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		e.renderLoop(ctx)
	}()
	defer func() {
		<-renderDone
		slog.Info("Step engine stopped")
	}()

	for {
		paced := false
		for _, step := range e.steps {
			if ctx.Err() != nil {
				return nil
			}
			if ran, preferred := e.runStep(ctx, step); ran && preferred > 0 {
				paced = true
			}
		}

		if !paced {
			select {
			case <-time.After(e.idleDelay):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// renderLoop executes platform thread work one item at a time
func (e *Engine) renderLoop(ctx context.Context) {
	for {
		select {
		case fn := <-e.render:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// runStep runs step unless it asks to be skipped. It reports whether the step ran and
// its preferred duration.
func (e *Engine) runStep(ctx context.Context, step Step) (bool, time.Duration) {
	mctx := NewStepContext(e.store)
	name := stepName(step)

	if step.ShouldSkip(mctx) {
		slog.Debug("Skipping step", "step", name)
		return false, 0
	}

	preferred := step.PreferredStepDuration(mctx)
	slog.Debug("Executing step", "step", name, "preferred_duration", preferred)

	errCh := make(chan error, 1)
	execute := func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("step panicked: %v", r)
			}
		}()
		errCh <- step.Execute(ctx, mctx)
	}

	if step.RequiresPlatformThread() {
		select {
		case e.render <- execute:
		case <-ctx.Done():
			return false, 0
		}
	} else {
		go execute()
	}

	var err error
	select {
	case <-mctx.Proceeded():
		err = <-errCh
	case err = <-errCh:
		if err == nil {
			slog.Warn("Step returned without proceeding", "step", name)
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		slog.Info("Step cancelled", "step", name)
	default:
		slog.Error("Step failed", "step", name, "error", err)
	}
	return true, preferred
}

func stepName(step Step) string {
	if n, ok := step.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", step)
}
