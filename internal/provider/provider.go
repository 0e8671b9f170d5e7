package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/mosaic-wall/internal/cache"
	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/sources"
	"github.com/stacklok/mosaic-wall/internal/telemetry"
)

const (
	// DefaultConcurrency is the number of collections listed, and media loaded, in parallel
	DefaultConcurrency = 4

	// notAvailable is stored for dates the source does not report
	notAvailable = "N/A"
)

// Attribute keys attached to every cached media item
const (
	AttributePhotoID    = "photoId"
	AttributePhotosetID = "photosetId"
	AttributeDateAdded  = "dateAdded"
	AttributeDatePosted = "datePosted"
	AttributeDateTaken  = "dateTaken"
)

// ScheduleState is the read-only view of the provider's progress
type ScheduleState struct {
	Initialized bool      `json:"initialized"`
	LastRunAt   time.Time `json:"lastRunAt"`
}

// TickResult summarizes one completed tick
type TickResult struct {
	CollectionCount int
	MediaCount      int
	LoadFailures    int
	CachedItems     int
}

// Provider refreshes the content cache from a collection source
type Provider struct {
	source      sources.CollectionSource
	cache       *cache.Cache
	matchers    []titleMatcher
	concurrency int
	tracer      trace.Tracer

	initialized atomic.Bool

	mu        sync.RWMutex
	lastRunAt time.Time
}

// Option is a function that configures the provider
type Option func(*Provider) error

// WithTitleFilters restricts the provider to collections whose title matches one of the filters
func WithTitleFilters(filters []string) Option {
	return func(p *Provider) error {
		matchers, err := compileTitleFilters(filters)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
		}
		p.matchers = matchers
		return nil
	}
}

// WithConcurrency sets how many collections are listed, and media loaded, in parallel
func WithConcurrency(n int) Option {
	return func(p *Provider) error {
		if n <= 0 {
			return fmt.Errorf("%w: concurrency must be larger than zero", config.ErrInvalidConfiguration)
		}
		p.concurrency = n
		return nil
	}
}

// WithTracerProvider sets the tracer provider used to trace ticks
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Provider) error {
		if tp != nil {
			p.tracer = tp.Tracer(telemetry.ProviderTracerName)
		}
		return nil
	}
}

// New creates a provider loading from source into c
func New(source sources.CollectionSource, c *cache.Cache, opts ...Option) (*Provider, error) {
	if source == nil {
		return nil, fmt.Errorf("collection source is required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}

	p := &Provider{
		source:      source,
		cache:       c,
		concurrency: DefaultConcurrency,
		tracer:      noop.NewTracerProvider().Tracer(telemetry.ProviderTracerName),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Initialized reports whether at least one tick has completed. It never reverts to false.
func (p *Provider) Initialized() bool {
	return p.initialized.Load()
}

// Count returns the number of cached media items
func (p *Provider) Count() int {
	return p.cache.Count()
}

// Sample returns up to n distinct cached media items chosen at random
func (p *Provider) Sample(n int) []*cache.MediaItem {
	return p.cache.Sample(n)
}

// Media returns the cached item with the given key
func (p *Provider) Media(key string) (*cache.MediaItem, bool) {
	return p.cache.GetByKey(key)
}

// State returns the current schedule state
func (p *Provider) State() ScheduleState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ScheduleState{
		Initialized: p.initialized.Load(),
		LastRunAt:   p.lastRunAt,
	}
}

// Tick runs one refresh. A listing failure aborts the tick with a *ListingError, a media
// that cannot be loaded is logged and skipped. The provider becomes initialized once a
// tick completes, even when no collection was accepted.
func (p *Provider) Tick(ctx context.Context) (*TickResult, error) {
	ctx, span := p.tracer.Start(ctx, "provider.tick")
	defer span.End()

	result, err := p.tick(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("provider.collections", result.CollectionCount),
		attribute.Int("provider.media", result.MediaCount),
		attribute.Int("provider.load_failures", result.LoadFailures),
		attribute.Int("cache.items", result.CachedItems),
	)
	return result, nil
}

func (p *Provider) tick(ctx context.Context) (*TickResult, error) {
	collections, err := p.source.ListCollections(ctx)
	if err != nil {
		return nil, &ListingError{Phase: PhaseListCollections, Err: err}
	}

	accepted := make([]sources.Collection, 0, len(collections))
	for _, c := range collections {
		if acceptTitle(p.matchers, c.Title) {
			accepted = append(accepted, c)
		}
	}
	slog.Debug("Filtered collections", "total", len(collections), "accepted", len(accepted))

	refs, err := p.listMedia(ctx, accepted)
	if err != nil {
		return nil, err
	}

	failures, err := p.loadMedia(ctx, refs)
	if err != nil {
		return nil, err
	}

	// a cancelled tick must not flip initialized
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.lastRunAt = time.Now()
	p.mu.Unlock()
	if p.initialized.CompareAndSwap(false, true) {
		slog.Info("Collection provider initialized", "cached_items", p.cache.Count())
	}

	return &TickResult{
		CollectionCount: len(accepted),
		MediaCount:      len(refs),
		LoadFailures:    failures,
		CachedItems:     p.cache.Count(),
	}, nil
}

// listMedia lists the media of every collection in parallel and joins the results in
// collection order
func (p *Provider) listMedia(ctx context.Context, collections []sources.Collection) ([]sources.MediaRef, error) {
	perCollection := make([][]sources.MediaRef, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, collection := range collections {
		g.Go(func() error {
			refs, err := p.source.ListMedia(gctx, collection)
			if err != nil {
				return &ListingError{Phase: PhaseListMedia, Collection: collection.Title, Err: err}
			}
			slog.Debug("Listed collection media", "collection", collection.Title, "media_count", len(refs))
			perCollection[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var refs []sources.MediaRef
	for _, r := range perCollection {
		refs = append(refs, r...)
	}
	return refs, nil
}

// loadMedia loads every reference into the cache and returns the number of load failures
func (p *Provider) loadMedia(ctx context.Context, refs []sources.MediaRef) (int, error) {
	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, ref := range refs {
		locator, ok := ref.PreferredRendition()
		if !ok {
			slog.Debug("Media has no displayable rendition", "photo_id", ref.ID, "collection_id", ref.CollectionID)
			continue
		}

		g.Go(func() error {
			_, err := p.cache.GetOrLoad(gctx, locator, p.loader(ref, locator))
			var loadErr *cache.LoadError
			switch {
			case err == nil:
				return nil
			case errors.As(err, &loadErr):
				failures.Add(1)
				slog.Warn("Failed to load media, skipping",
					"photo_id", ref.ID,
					"locator", locator,
					"error", loadErr.Err)
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(failures.Load()), nil
}

// loader returns the cache loader fetching the payload of ref from the source
func (p *Provider) loader(ref sources.MediaRef, locator string) cache.Loader {
	return func(ctx context.Context) (*cache.MediaItem, error) {
		payload, err := p.source.FetchMedia(ctx, locator)
		if err != nil {
			return nil, err
		}

		item := &cache.MediaItem{
			Payload:    payload,
			Attributes: mediaAttributes(ref),
		}
		if ref.DatePosted != nil {
			item.PostedAt = *ref.DatePosted
		}
		return item, nil
	}
}

// mediaAttributes builds the metadata stored alongside a media item
func mediaAttributes(ref sources.MediaRef) cache.Attributes {
	return cache.Attributes{
		AttributePhotoID:    ref.ID,
		AttributePhotosetID: ref.CollectionID,
		AttributeDateAdded:  formatDate(ref.DateAdded),
		AttributeDatePosted: formatDate(ref.DatePosted),
		AttributeDateTaken:  formatDate(ref.DateTaken),
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notAvailable
	}
	return t.UTC().Format(time.RFC3339)
}
