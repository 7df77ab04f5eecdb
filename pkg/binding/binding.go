// Package binding binds an asynchronous producer to a loading/error/data state.
//
// A Binding invokes its producer when it is created, when its dependencies change
// (compared by value) and when Refetch is called. Only the result of the latest
// invocation is ever applied: results of superseded invocations are dropped,
// whatever order they settle in.
//
// The producer is not given a deadline; timeouts are the producer's business.
package binding

import (
	"context"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/logger"
)

// FallbackMessage is the Error of a failed invocation whose error says nothing.
const FallbackMessage = "An error occurred"

// Producer produces the value for deps.
type Producer[T any, D comparable] func(ctx context.Context, deps D) (T, error)

// None is the dependency tuple of a Binding without dependencies.
type None struct{}

// Ignore makes f a Producer of a Binding without dependencies.
func Ignore[T any](f func(context.Context) (T, error)) Producer[T, None] {
	return func(ctx context.Context, _ None) (T, error) {
		return f(ctx)
	}
}

// State is the observable result of a Binding.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool

	// message of the failure of the latest invocation. "" if it did not fail.
	Error string
}

func (s State[T]) IsLoading() bool {
	return s.Loading
}

func (s State[T]) ErrorMessage() string {
	return s.Error
}

// Changed tells whether a Binding with deps old should re-invoke its producer for new.
func Changed[D comparable](old, new D) bool {
	return old != new
}

type Binding[T any, D comparable] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	produce Producer[T, D]
	name    string
	log     *log.Logger

	mu        sync.Mutex
	deps      D
	seq       uint64
	state     State[T]
	changed   chan struct{}
	listeners map[int]func(State[T])
	nextId    int

	// states committed but not yet delivered to listeners, oldest first.
	queue       []version[T]
	dispatching bool
	committed   uint64
	delivered   uint64

	// held while listeners are being called.
	dispatchMu sync.Mutex
}

type version[T any] struct {
	number uint64
	state  State[T]
}

type config struct {
	name string
	log  *log.Logger
}

type Option func(*config) *config

// WithName names the binding in logs.
func WithName(name string) Option {
	return func(c *config) *config {
		c.name = name
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

// New creates a Binding and invokes produce for deps.
//
// Producers run with a context derived from ctx, which is cancelled by Close.
func New[T any, D comparable](ctx context.Context, produce Producer[T, D], deps D, options ...Option) *Binding[T, D] {
	conf := &config{name: "binding", log: logger.Null()}
	for _, o := range options {
		conf = o(conf)
	}

	bctx, cancel := context.WithCancel(ctx)
	b := &Binding[T, D]{
		ctx:       bctx,
		cancel:    cancel,
		produce:   produce,
		name:      conf.name,
		log:       conf.log,
		deps:      deps,
		changed:   make(chan struct{}),
		listeners: map[int]func(State[T]){},
	}
	b.invoke()
	return b
}

// Update sets dependencies. The producer is invoked if they are Changed.
func (b *Binding[T, D]) Update(deps D) {
	b.mu.Lock()
	if !Changed(b.deps, deps) {
		b.mu.Unlock()
		return
	}
	b.deps = deps
	b.mu.Unlock()

	b.invoke()
}

// Refetch invokes the producer again with the current dependencies.
//
// It can be called while a former invocation is pending;
// the former one is superseded.
func (b *Binding[T, D]) Refetch() {
	b.invoke()
}

// Deps returns the current dependencies.
func (b *Binding[T, D]) Deps() D {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deps
}

func (b *Binding[T, D]) State() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Subscribe registers fn to be called with the new state on every change.
//
// Calls are made one at a time, in the order of changes, from a goroutine of the Binding.
// fn may read or drive the Binding, but must not call the cancel of any subscription
// of the same Binding.
//
// Once cancel returns, fn is not running and is never called again.
func (b *Binding[T, D]) Subscribe(fn func(State[T])) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextId
	b.nextId += 1
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()

		// wait for the delivery in progress, which may still hold fn.
		b.dispatchMu.Lock()
		b.dispatchMu.Unlock()
	}
}

// Settled waits until the latest invocation is settled and every subscriber has
// been given the states committed so far, and returns the state then.
//
// If ctx is done before that, it returns the current state and ctx.Err().
func (b *Binding[T, D]) Settled(ctx context.Context) (State[T], error) {
	for {
		b.mu.Lock()
		st, ch := b.state, b.changed
		delivered := b.delivered == b.committed
		b.mu.Unlock()

		if !st.Loading && delivered {
			return st, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close stops the Binding. Pending and future results are not applied,
// and the state stops loading.
func (b *Binding[T, D]) Close() {
	b.mu.Lock()
	b.cancel()
	if !b.state.Loading {
		b.mu.Unlock()
		return
	}
	b.state.Loading = false
	b.commit()
	b.mu.Unlock()
}

func (b *Binding[T, D]) invoke() {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return
	}
	b.seq += 1
	seq, deps := b.seq, b.deps
	b.state.Loading = true
	b.state.Error = ""
	b.commit()
	b.mu.Unlock()

	b.log.Debugf("%s: invoke #%d", b.name, seq)
	go func() {
		value, err := b.produce(b.ctx, deps)
		b.settle(seq, value, err)
	}()
}

func (b *Binding[T, D]) settle(seq uint64, value T, err error) {
	b.mu.Lock()
	if seq != b.seq || b.ctx.Err() != nil {
		latest := b.seq
		b.mu.Unlock()
		b.log.Debugf("%s: drop result of #%d (latest is #%d)", b.name, seq, latest)
		return
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = FallbackMessage
		}
		b.state = State[T]{Error: msg}
		b.log.Infof("%s: #%d failed: %s", b.name, seq, msg)
	} else {
		b.state = State[T]{Data: value, HasData: true}
	}
	b.commit()
	b.mu.Unlock()
}

// commit wakes Settled waiters up and queues the state for listeners.
// Callers hold b.mu.
func (b *Binding[T, D]) commit() {
	b.broadcast()
	b.committed += 1
	b.queue = append(b.queue, version[T]{number: b.committed, state: b.state})
	if !b.dispatching {
		b.dispatching = true
		go b.dispatch()
	}
}

// broadcast wakes Settled waiters up. Callers hold b.mu.
func (b *Binding[T, D]) broadcast() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// dispatch delivers queued states to listeners until the queue is empty.
//
// There is at most one dispatch running per Binding.
func (b *Binding[T, D]) dispatch() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.dispatching = false
			b.mu.Unlock()
			return
		}
		v := b.queue[0]
		b.queue = b.queue[1:]
		listeners := make([]func(State[T]), 0, len(b.listeners))
		for _, l := range b.listeners {
			listeners = append(listeners, l)
		}
		// taken before b.mu is released, so a cancel either removes its listener
		// from this snapshot or waits for this delivery.
		b.dispatchMu.Lock()
		b.mu.Unlock()

		for _, l := range listeners {
			l(v.state)
		}
		b.dispatchMu.Unlock()

		b.mu.Lock()
		b.delivered = v.number
		b.broadcast()
		b.mu.Unlock()
	}
}

// Status is what Combine reads from each state.
type Status interface {
	IsLoading() bool
	ErrorMessage() string
}

// Combine reduces states into one loading flag and one error.
//
// loading is true while any of states is loading.
// err is the first non-empty error in the given order; the others are dropped.
func Combine(states ...Status) (loading bool, err string) {
	for _, s := range states {
		loading = loading || s.IsLoading()
		if err == "" {
			err = s.ErrorMessage()
		}
	}
	return loading, err
}
