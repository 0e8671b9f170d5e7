package sources

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expiringValue memoizes the result of load for ttl. Callers arriving while the value
// is being recomputed share that computation instead of starting their own, and a caller
// whose context ends stops waiting without cancelling it. Failed loads are not memoized.
type expiringValue[T any] struct {
	load func(ctx context.Context) (T, error)
	ttl  time.Duration
	now  func() time.Time

	flight singleflight.Group

	mu       sync.Mutex
	value    T
	loadedAt time.Time
	valid    bool
}

func newExpiringValue[T any](ttl time.Duration, load func(ctx context.Context) (T, error)) *expiringValue[T] {
	return &expiringValue[T]{
		load: load,
		ttl:  ttl,
		now:  time.Now,
	}
}

func (e *expiringValue[T]) fresh() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.valid && e.now().Sub(e.loadedAt) < e.ttl {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Get returns the memoized value, reloading it once it is older than the TTL
func (e *expiringValue[T]) Get(ctx context.Context) (T, error) {
	if value, ok := e.fresh(); ok {
		return value, nil
	}

	ch := e.flight.DoChan("value", func() (any, error) {
		if value, ok := e.fresh(); ok {
			return value, nil
		}

		value, err := e.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.value = value
		e.loadedAt = e.now()
		e.valid = true
		e.mu.Unlock()
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate forces the next Get to reload
func (e *expiringValue[T]) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.valid = false
}
