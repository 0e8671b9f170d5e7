package stepengine

import (
	"sync"

	"github.com/stacklok/mosaic-wall/internal/canvas"
)

// SkipTokenKey is the context key holding the token steps compare against their skip condition
const SkipTokenKey = "skipToken"

// MachineContext is the state shared by the steps of one engine
type MachineContext interface {
	// Get returns the value stored under key
	Get(key string) (any, bool)

	// Put stores value under key
	Put(key string, value any)

	// SkipToken returns the current skip token, or "" when none is set
	SkipToken() string

	// DataProvider returns the data provider registered under name
	DataProvider(name string) (any, bool)

	// Canvas returns the canvas the steps draw on, nil when none is registered
	Canvas() canvas.Canvas

	// Proceed signals that the running step is finished. Calls after the first are ignored.
	Proceed()
}

// Store holds the values, data providers and canvas shared by every step
type Store struct {
	mu        sync.RWMutex
	values    map[string]any
	providers map[string]any
	canvas    canvas.Canvas
}

// NewStore creates a store drawing on c
func NewStore(c canvas.Canvas) *Store {
	return &Store{
		values:    make(map[string]any),
		providers: make(map[string]any),
		canvas:    c,
	}
}

// RegisterDataProvider makes provider available to steps under name
func (s *Store) RegisterDataProvider(name string, provider any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[name] = provider
}

func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Store) provider(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	return p, ok
}

// StepContext is the MachineContext handed to one step execution
type StepContext struct {
	store     *Store
	once      sync.Once
	proceeded chan struct{}
}

// NewStepContext creates the context for one execution of a step
func NewStepContext(store *Store) *StepContext {
	return &StepContext{
		store:     store,
		proceeded: make(chan struct{}),
	}
}

func (c *StepContext) Get(key string) (any, bool) {
	return c.store.get(key)
}

func (c *StepContext) Put(key string, value any) {
	c.store.put(key, value)
}

func (c *StepContext) SkipToken() string {
	v, ok := c.store.get(SkipTokenKey)
	if !ok {
		return ""
	}
	token, _ := v.(string)
	return token
}

func (c *StepContext) DataProvider(name string) (any, bool) {
	return c.store.provider(name)
}

func (c *StepContext) Canvas() canvas.Canvas {
	return c.store.canvas
}

func (c *StepContext) Proceed() {
	c.once.Do(func() {
		close(c.proceeded)
	})
}

// Proceeded is closed once Proceed has been called
func (c *StepContext) Proceeded() <-chan struct{} {
	return c.proceeded
}

// Lookup returns the data provider registered under name if it has type T
func Lookup[T any](mctx MachineContext, name string) (T, bool) {
	var zero T
	v, ok := mctx.DataProvider(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
