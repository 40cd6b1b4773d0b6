// Package resourcecache memoizes the results of expensive loads by key. A
// key is loaded at most once; callers asking while the load is running
// wait for the same result.
package resourcecache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrLoaderPanic wraps a panic raised by a loader.
var ErrLoaderPanic = errors.New("resource loader panicked")

type options struct {
	evictFailures bool
	logger        *log.Logger
}

type Option func(*options)

// WithLogger sets where panicking listeners are reported. The default is
// log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFailureEviction drops failed results as soon as the load fails. The
// listeners already waiting still get the failure, and the next request for
// the key loads it again. By default a failure is cached like any other
// result.
func WithFailureEviction() Option {
	return func(o *options) {
		o.evictFailures = true
	}
}

type entry[V any] struct {
	done    bool // the load finished and every queued listener was called
	val     V
	err     error
	waiters []func(V, error)
}

// Cache is a single-flight memo cache. The zero value is not usable; use New.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	opts    options
}

func New[V any](opts ...Option) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		opts:    options{logger: log.Default()},
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// GetOrLoad calls done with the result for key. The first request for a key
// calls load, which must eventually call its done argument once; later
// calls of it are ignored. Requests made while the load runs are queued and
// called in the order they arrived. load and done never run under the
// cache lock, so they may call back into the cache.
func (c *Cache[V]) GetOrLoad(key string, load func(done func(V, error)), done func(V, error)) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if e.done {
			v, err := e.val, e.err
			c.mu.Unlock()
			call(done, v, err)
			return
		}
		e.waiters = append(e.waiters, done)
		c.mu.Unlock()
		return
	}
	e := &entry[V]{waiters: []func(V, error){done}}
	c.entries[key] = e
	c.mu.Unlock()

	var once sync.Once
	finish := func(v V, err error) {
		once.Do(func() { c.resolve(key, e, v, err) })
	}
	defer func() {
		if r := recover(); r != nil {
			var zero V
			finish(zero, fmt.Errorf("%w: %s: %v", ErrLoaderPanic, key, r))
		}
	}()
	load(finish)
}

func (c *Cache[V]) resolve(key string, e *entry[V], v V, err error) {
	c.mu.Lock()
	e.val, e.err = v, err
	if err != nil && c.opts.evictFailures && c.entries[key] == e {
		// Requests arriving from now on start a new load.
		delete(c.entries, key)
	}
	for len(e.waiters) > 0 {
		waiters := e.waiters
		e.waiters = nil
		c.mu.Unlock()
		for _, w := range waiters {
			c.notify(key, w, v, err)
		}
		c.mu.Lock()
	}
	e.done = true
	c.mu.Unlock()
}

// notify calls a queued listener. A panic is logged so the listeners after
// it still run and the entry still completes.
func (c *Cache[V]) notify(key string, fn func(V, error), v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.opts.logger.Printf("Warning: listener for %s panicked: %v", key, r)
		}
	}()
	call(fn, v, err)
}

func call[V any](fn func(V, error), v V, err error) {
	if fn != nil {
		fn(v, err)
	}
}

type result[V any] struct {
	val V
	err error
}

// Get is the blocking form of GetOrLoad. The loader runs on its own
// goroutine with a context that is never canceled, because other callers
// may share its result; ctx only bounds how long this caller waits.
func (c *Cache[V]) Get(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	ch := make(chan result[V], 1)
	c.GetOrLoad(key, func(done func(V, error)) {
		loadCtx := context.WithoutCancel(ctx)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					var zero V
					done(zero, fmt.Errorf("%w: %s: %v", ErrLoaderPanic, key, r))
				}
			}()
			done(load(loadCtx))
		}()
	}, func(v V, err error) {
		ch <- result[V]{v, err}
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}

// Forget drops the entry for key. Listeners of a running load are still
// called, but the next request starts a new load.
func (c *Cache[V]) Forget(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len is the number of cached or in-flight keys.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
