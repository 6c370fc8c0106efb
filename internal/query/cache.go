// Package query caches server reads by key with request deduplication and
// stale-while-revalidate semantics.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultStaleTime is how long fetched data is served without revalidation.
const DefaultStaleTime = 30 * time.Second

// Result is the state of a key as seen by a reader.
type Result[T any] struct {
	Data      T
	IsLoading bool
	IsStale   bool
	Err       error
	UpdatedAt time.Time
}

// HasData reports whether Data came from a successful fetch.
func (r Result[T]) HasData() bool { return !r.UpdatedAt.IsZero() }

type entry struct {
	data        any
	updatedAt   time.Time
	err         error
	invalidated bool
	fetching    bool
	// gen advances on every invalidation; a fetch started under an older
	// gen must not store its result.
	gen uint64
}

func (e *entry) hasData() bool { return e != nil && !e.updatedAt.IsZero() }

// Cache holds the last known result per key. It is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	group     singleflight.Group
	wg        sync.WaitGroup
	closed    bool
	staleTime time.Duration
	now       func() time.Time
}

// NewCache returns an empty cache. A non-positive staleTime uses DefaultStaleTime.
func NewCache(staleTime time.Duration) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Cache{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		now:       time.Now,
	}
}

// Fetcher loads the value for a key from the server.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Option adjusts a single Fetch.
type Option func(*options)

type options struct {
	enabled   bool
	staleTime time.Duration
}

// Enabled turns the fetch off when false; the cached state is returned and
// no request is made.
func Enabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// StaleTime overrides the cache's stale time for this read.
func StaleTime(d time.Duration) Option {
	return func(o *options) { o.staleTime = d }
}

// Fetch returns the value for key, loading it when absent or invalidated.
// Fresh data is served from the cache. Stale data is served immediately and
// revalidated in the background. A stored error is returned until Refetch or
// an invalidation clears it.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], opts ...Option) Result[T] {
	o := options{enabled: true, staleTime: c.staleTime}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return Snapshot[T](c, key)
	}

	c.mu.Lock()
	e := c.entries[key]
	switch {
	case e == nil || e.invalidated:
		c.mu.Unlock()
		return load(ctx, c, key, fetch)
	case e.err != nil:
		res := resultOf[T](e, false)
		c.mu.Unlock()
		return res
	case !e.hasData():
		c.mu.Unlock()
		return load(ctx, c, key, fetch)
	}

	stale := c.now().Sub(e.updatedAt) >= o.staleTime
	res := resultOf[T](e, stale)
	if stale && !e.fetching && !c.closed {
		e.fetching = true
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			load(context.WithoutCancel(ctx), c, key, fetch)
		}()
	}
	c.mu.Unlock()
	return res
}

// Refetch loads key regardless of its cached state. It is the manual retry
// for a stored error.
func Refetch[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T]) Result[T] {
	return load(ctx, c, key, fetch)
}

// Snapshot returns the cached state of key without fetching.
func Snapshot[T any](c *Cache, key string) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		return Result[T]{}
	}
	stale := e.invalidated || (e.hasData() && c.now().Sub(e.updatedAt) >= c.staleTime)
	return resultOf[T](e, stale)
}

func load[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T]) Result[T] {
	c.mu.Lock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.fetching = true
	gen := e.gen
	c.mu.Unlock()

	_, _, _ = c.group.Do(key, func() (any, error) {
		data, err := fetch(ctx)
		c.store(key, e, gen, data, err)
		return nil, nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.entries[key]
	if current == nil {
		// Cleared while loading.
		return Result[T]{}
	}
	return resultOf[T](current, current.invalidated)
}

// store records a fetch result unless the entry was invalidated or cleared
// after the fetch began.
func (c *Cache) store(key string, e *entry, gen uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] != e || e.gen != gen {
		return
	}
	e.fetching = false
	e.invalidated = false
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.err = nil
	e.updatedAt = c.now()
}

func resultOf[T any](e *entry, stale bool) Result[T] {
	res := Result[T]{
		IsLoading: e.fetching && !e.hasData(),
		IsStale:   stale,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
	if e.data != nil {
		data, ok := e.data.(T)
		if !ok {
			res.Err = errors.Join(res.Err, fmt.Errorf("query: cached value is %T, not %T", e.data, res.Data))
			return res
		}
		res.Data = data
	}
	return res
}

// Invalidate marks keys stale and clears any stored error. The next Fetch of
// each key loads it again; cached data stays visible to Snapshot.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			c.invalidate(key, e)
		}
	}
}

// InvalidatePrefix invalidates every cached key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.invalidate(key, e)
		}
	}
}

// invalidate detaches any in-flight fetch so the next load starts a new one.
func (c *Cache) invalidate(key string, e *entry) {
	e.invalidated = true
	e.err = nil
	e.fetching = false
	e.gen++
	c.group.Forget(key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.group.Forget(key)
	}
	c.entries = make(map[string]*entry)
}

// Keys returns the cached keys.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Close stops background revalidation and waits for running work.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}
