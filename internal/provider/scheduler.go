package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/status"
	"github.com/stacklok/mosaic-wall/internal/telemetry"
)

// StatusName is the name under which the provider status is persisted
const StatusName = "provider"

// Refresher performs one provider run
type Refresher interface {
	Tick(ctx context.Context) (*TickResult, error)
}

// Scheduler runs provider ticks in the background
type Scheduler interface {
	// Start runs ticks on the configured schedule.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels the schedule and waits for the running tick to return
	Stop() error

	// Status returns a copy of the status of the last tick
	Status() status.TickStatus
}

// Schedule describes when ticks run
type Schedule struct {
	Type         config.ScheduleType
	InitialDelay time.Duration
	Interval     time.Duration
}

// ScheduleFromConfig converts the provider configuration into a Schedule
func ScheduleFromConfig(cfg *config.ProviderConfig) Schedule {
	return Schedule{
		Type:         cfg.ScheduleType,
		InitialDelay: cfg.InitialDelayDuration(),
		Interval:     cfg.ScheduleInterval(),
	}
}

func (s Schedule) String() string {
	return fmt.Sprintf("%s every %s", s.Type, s.Interval)
}

// defaultScheduler is the default implementation of Scheduler
type defaultScheduler struct {
	refresher   Refresher
	schedule    Schedule
	persistence status.StatusPersistence
	metrics     *telemetry.ProviderMetrics
	countItems  func() int

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
	running    atomic.Bool
	ticks      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	status  status.TickStatus
}

// SchedulerOption is a function that configures the scheduler
type SchedulerOption func(*defaultScheduler)

// WithStatusPersistence persists the tick status after every state change
func WithStatusPersistence(p status.StatusPersistence) SchedulerOption {
	return func(s *defaultScheduler) {
		s.persistence = p
	}
}

// WithProviderMetrics sets the metrics recorded for every tick
func WithProviderMetrics(m *telemetry.ProviderMetrics) SchedulerOption {
	return func(s *defaultScheduler) {
		s.metrics = m
	}
}

// WithItemCounter sets the function reporting the cache size after a failed tick
func WithItemCounter(count func() int) SchedulerOption {
	return func(s *defaultScheduler) {
		s.countItems = count
	}
}

// NewScheduler creates a scheduler running refresher on schedule
func NewScheduler(refresher Refresher, schedule Schedule, opts ...SchedulerOption) (Scheduler, error) {
	switch schedule.Type {
	case config.ScheduleFixedRate, config.ScheduleFixedDelay:
	default:
		return nil, fmt.Errorf("%w: unknown schedule type %q", config.ErrInvalidConfiguration, schedule.Type)
	}
	if schedule.Interval <= 0 {
		return nil, fmt.Errorf("%w: schedule interval must be larger than zero", config.ErrInvalidConfiguration)
	}
	if schedule.InitialDelay < 0 {
		return nil, fmt.Errorf("%w: initial delay must not be negative", config.ErrInvalidConfiguration)
	}

	s := &defaultScheduler{
		refresher: refresher,
		schedule:  schedule,
		done:      make(chan struct{}),
		status:    status.TickStatus{Schedule: schedule.String()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs ticks until the context is cancelled
func (s *defaultScheduler) Start(ctx context.Context) error {
	slog.Info("Starting collection provider scheduler",
		"schedule_type", s.schedule.Type,
		"initial_delay", s.schedule.InitialDelay,
		"interval", s.schedule.Interval)

	schedCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		close(s.done)
		return nil
	}
	s.cancelFunc = cancel
	s.mu.Unlock()
	defer func() {
		s.ticks.Wait()
		close(s.done)
		slog.Info("Collection provider scheduler shutting down")
	}()

	s.restoreStatus(schedCtx)

	if !sleep(schedCtx, s.schedule.InitialDelay) {
		return nil
	}

	if s.schedule.Type == config.ScheduleFixedDelay {
		s.runFixedDelay(schedCtx)
	} else {
		s.runFixedRate(schedCtx)
	}
	return nil
}

// Stop gracefully stops the scheduler. A scheduler stopped before Start never ticks.
func (s *defaultScheduler) Stop() error {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancelFunc
	s.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping collection provider scheduler")
		cancel()
		<-s.done
	}
	return nil
}

// Status returns a copy of the current tick status
func (s *defaultScheduler) Status() status.TickStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// runFixedRate starts a tick every interval measured from the previous start. A tick
// that comes due while the previous one is still running is skipped.
func (s *defaultScheduler) runFixedRate(ctx context.Context) {
	ticker := time.NewTicker(s.schedule.Interval)
	defer ticker.Stop()

	s.startTick(ctx)
	for {
		select {
		case <-ticker.C:
			s.startTick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *defaultScheduler) startTick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("Previous provider tick still running, skipping this one")
		return
	}
	s.ticks.Add(1)
	go func() {
		defer s.ticks.Done()
		defer s.running.Store(false)
		s.performTick(ctx)
	}()
}

// runFixedDelay waits interval between the end of one tick and the start of the next
func (s *defaultScheduler) runFixedDelay(ctx context.Context) {
	for {
		s.performTick(ctx)
		if !sleep(ctx, s.schedule.Interval) {
			return
		}
	}
}

// performTick runs one tick and records its outcome
func (s *defaultScheduler) performTick(ctx context.Context) {
	started := time.Now()
	s.updateStatus(ctx, func(st *status.TickStatus) {
		st.Phase = status.TickPhaseRunning
		st.Message = "Refresh in progress"
		st.LastAttempt = &started
		st.AttemptCount++
	})

	result, err := s.refresher.Tick(ctx)
	duration := time.Since(started)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Provider tick cancelled", "duration", duration)
		} else {
			slog.Error("Provider tick failed", "duration", duration, "error", err)
		}
		s.metrics.RecordTick(ctx, duration, false)
		s.updateStatus(context.WithoutCancel(ctx), func(st *status.TickStatus) {
			st.Phase = status.TickPhaseFailed
			st.Message = err.Error()
			if s.countItems != nil {
				st.CachedItems = s.countItems()
			}
		})
		return
	}

	slog.Info("Provider tick completed",
		"duration", duration,
		"collection_count", result.CollectionCount,
		"media_count", result.MediaCount,
		"load_failures", result.LoadFailures,
		"cached_items", result.CachedItems)
	s.metrics.RecordTick(ctx, duration, true)
	s.metrics.RecordCachedItems(ctx, int64(result.CachedItems))

	now := time.Now()
	s.updateStatus(ctx, func(st *status.TickStatus) {
		st.Phase = status.TickPhaseComplete
		st.Message = "Refresh completed successfully"
		st.Initialized = true
		st.LastSuccess = &now
		st.AttemptCount = 0
		st.CollectionCount = result.CollectionCount
		st.MediaCount = result.MediaCount
		st.LoadFailures = result.LoadFailures
		st.CachedItems = result.CachedItems
	})
}

// updateStatus applies fn under the lock and persists the result
func (s *defaultScheduler) updateStatus(ctx context.Context, fn func(*status.TickStatus)) {
	s.mu.Lock()
	fn(&s.status)
	snapshot := s.status
	s.mu.Unlock()

	if s.persistence == nil {
		return
	}
	if err := s.persistence.SaveStatus(ctx, StatusName, &snapshot); err != nil {
		slog.Warn("Failed to persist provider status", "error", err)
	}
}

// restoreStatus loads the attempt history of a previous process. The loaded status
// never marks this process as initialized.
func (s *defaultScheduler) restoreStatus(ctx context.Context) {
	if s.persistence == nil {
		return
	}
	previous, err := s.persistence.LoadStatus(ctx, StatusName)
	if err != nil {
		slog.Warn("Failed to load previous provider status", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastSuccess = previous.LastSuccess
	s.status.AttemptCount = previous.AttemptCount
}

// sleep waits for d or until ctx is done, reporting whether the full duration elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
