// Package reqcache deduplicates network calls by key within a freshness window.
//
// For a key, the first Acquire issues the call. Until the window elapses,
// every other Acquire for the key (while the call is pending or after it is settled)
// shares the same outcome, success or failure, without issuing another call.
//
// Entries are dropped by a cleanup scheduled when they are created.
// The cleanup removes only the entry it was scheduled for,
// never a newer entry which took over the same key.
package reqcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/logger"
	"github.com/opst/podconsole/pkg/promise"
)

// DefaultWindow is the freshness window used when WithWindow is not given.
const DefaultWindow = 5 * time.Second

// Fetch performs one network call.
type Fetch func(ctx context.Context) (*http.Response, error)

type Cache struct {
	ctx    context.Context
	window time.Duration
	clock  clockwork.Clock
	log    *log.Logger

	mu      sync.Mutex
	entries map[string]*entry

	onCleanup func(key string, removed bool)
}

type entry struct {
	promise   *promise.Promise[any]
	timestamp time.Time
}

type Option func(*Cache) *Cache

func WithWindow(d time.Duration) Option {
	return func(c *Cache) *Cache {
		c.window = d
		return c
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) *Cache {
		c.clock = clock
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Cache) *Cache {
		c.log = l
		return c
	}
}

// New creates a Cache.
//
// Calls are performed with ctx, not with the context of any caller,
// since one call serves every caller sharing the key.
func New(ctx context.Context, options ...Option) *Cache {
	c := &Cache{
		ctx:     ctx,
		window:  DefaultWindow,
		clock:   clockwork.NewRealClock(),
		log:     logger.Null(),
		entries: map[string]*entry{},
	}
	for _, o := range options {
		c = o(c)
	}
	return c
}

func (c *Cache) Window() time.Duration {
	return c.window
}

// Acquire returns the Promise of the JSON response for key.
//
// If an entry for key is in the window, its Promise is shared.
// Otherwise fetch is called once, its response is validated (see Validate)
// and decoded into T, and the result is kept for key.
//
// When key is cached with another type than T, the Promise fails with *TypeMismatchError.
func Acquire[T any](c *Cache, key string, fetch Fetch) *promise.Promise[T] {
	p := c.acquire(key, func(ctx context.Context) (any, error) {
		return fetchJSON[T](ctx, fetch)
	})
	return promise.Then(p, func(v any) (T, error) {
		t, ok := v.(T)
		if !ok {
			return *new(T), &TypeMismatchError{
				Key: key, Cached: fmt.Sprintf("%T", v), Requested: fmt.Sprintf("%T", *new(T)),
			}
		}
		return t, nil
	})
}

func (c *Cache) acquire(key string, load func(context.Context) (any, error)) *promise.Promise[any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[key]; ok && now.Sub(e.timestamp) < c.window {
		c.log.Debugf("shared: %s (age %s)", key, now.Sub(e.timestamp))
		return e.promise
	}

	p, resolve := promise.New[any]()
	e := &entry{promise: p, timestamp: now}
	c.entries[key] = e
	c.clock.AfterFunc(c.window, func() { c.expire(key, e) })

	c.log.Debugf("issue: %s", key)
	go func() {
		v, err := load(c.ctx)
		if err != nil {
			c.log.Warnf("failed: %s: %s", key, err)
		}
		resolve(v, err)
	}()

	return p
}

// expire is the scheduled cleanup of e.
func (c *Cache) expire(key string, e *entry) {
	c.mu.Lock()
	cur, ok := c.entries[key]
	removed := ok && cur == e && cur.timestamp.Equal(e.timestamp)
	if removed {
		delete(c.entries, key)
	}
	hook := c.onCleanup
	c.mu.Unlock()

	if hook != nil {
		hook(key, removed)
	}
}

// Invalidate drops the entry for key. The next Acquire issues a new call.
//
// Callers already holding the Promise of the entry still get its outcome.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidatePrefix drops entries whose key starts with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Len is the number of entries, fresh or not yet cleaned up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func fetchJSON[T any](ctx context.Context, fetch Fetch) (T, error) {
	var zero T

	resp, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if err := Validate(resp); err != nil {
		return zero, err
	}

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return zero, &DecodeError{Status: resp.StatusCode, Err: err}
	}
	return v, nil
}

// TypeMismatchError tells the key is cached with other type than requested.
type TypeMismatchError struct {
	Key       string
	Cached    string
	Requested string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cache entry %q holds %s, not %s", e.Key, e.Cached, e.Requested)
}
