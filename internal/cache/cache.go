// Package cache provides the bounded content cache holding displayable media items.
//
// Loads are deduplicated per locator: concurrent callers asking for the same
// locator share a single invocation of the loader.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/sampling"
)

// Loader fetches the media item stored under a locator
type Loader func(ctx context.Context) (*MediaItem, error)

// Cache is a bounded, concurrency-safe media store. When full, the least recently
// added item is evicted.
type Cache struct {
	store  *lru.Cache[string, *MediaItem]
	flight singleflight.Group
	rng    sampling.Random
}

// Option configures a Cache
type Option func(*Cache)

// WithRandom sets the random source used by Sample
func WithRandom(rng sampling.Random) Option {
	return func(c *Cache) {
		c.rng = rng
	}
}

// New creates a cache holding at most size items
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be larger than zero, got %d",
			config.ErrInvalidConfiguration, size)
	}

	store, err := lru.NewWithEvict(size, func(key string, item *MediaItem) {
		slog.Debug("Evicted media item from cache", "key", key, "locator", item.Locator)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	c := &Cache{
		store: store,
		rng:   sampling.NewRandom(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetOrLoad returns the item cached under locator, invoking loader when it is absent.
// Concurrent calls for the same locator share one loader invocation. A caller whose
// context ends stops waiting while the shared load carries on for the others.
func (c *Cache) GetOrLoad(ctx context.Context, locator string, loader Loader) (*MediaItem, error) {
	key := MediaKey(locator)
	if item, ok := c.store.Peek(key); ok {
		return item, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		// another flight may have stored the item between Peek and DoChan
		if item, ok := c.store.Peek(key); ok {
			return item, nil
		}

		item, err := loader(context.WithoutCancel(ctx))
		if err != nil {
			return nil, &LoadError{Locator: locator, Err: err}
		}
		if item == nil {
			return nil, &LoadError{Locator: locator, Err: fmt.Errorf("loader returned no item")}
		}

		item.Locator = locator
		if item.Width == 0 || item.Height == 0 {
			if err := item.decodeDimensions(); err != nil {
				return nil, &LoadError{Locator: locator, Err: err}
			}
		}

		c.store.Add(key, item)
		return item, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*MediaItem), nil
	}
}

// Get returns the item cached under locator without loading it
func (c *Cache) Get(locator string) (*MediaItem, bool) {
	return c.store.Peek(MediaKey(locator))
}

// GetByKey returns the item whose MediaKey equals key
func (c *Cache) GetByKey(key string) (*MediaItem, bool) {
	return c.store.Peek(key)
}

// Count returns the number of cached items
func (c *Cache) Count() int {
	return c.store.Len()
}

// Sample returns up to n distinct cached items chosen uniformly at random
func (c *Cache) Sample(n int) []*MediaItem {
	return sampling.Pool(c.store.Values(), n, c.rng)
}
