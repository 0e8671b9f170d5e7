package stepengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BackgroundSetter is a canvas that can change its background
type BackgroundSetter interface {
	SetBackground(name string)
}

// BackgroundSwitcher shows the next configured background every time it runs
type BackgroundSwitcher struct {
	backgrounds []string

	mu   sync.Mutex
	next int
}

// NewBackgroundSwitcher creates a step cycling through backgrounds
func NewBackgroundSwitcher(backgrounds []string) (*BackgroundSwitcher, error) {
	if len(backgrounds) == 0 {
		return nil, fmt.Errorf("at least one background is required")
	}
	return &BackgroundSwitcher{backgrounds: backgrounds}, nil
}

func (*BackgroundSwitcher) Name() string {
	return "BackgroundSwitcher"
}

func (*BackgroundSwitcher) ShouldSkip(MachineContext) bool {
	return false
}

// Execute sets the next background on the canvas and proceeds
func (b *BackgroundSwitcher) Execute(_ context.Context, mctx MachineContext) error {
	defer mctx.Proceed()

	setter, ok := mctx.Canvas().(BackgroundSetter)
	if !ok {
		return fmt.Errorf("canvas does not support backgrounds")
	}

	b.mu.Lock()
	name := b.backgrounds[b.next]
	b.next = (b.next + 1) % len(b.backgrounds)
	b.mu.Unlock()

	setter.SetBackground(name)
	slog.Debug("Switched background", "background", name)
	return nil
}

func (*BackgroundSwitcher) PreferredStepDuration(MachineContext) time.Duration {
	return 0
}

func (*BackgroundSwitcher) RequiresPlatformThread() bool {
	return true
}
