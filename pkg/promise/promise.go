// Package promise provides a settle-once future.
//
// A Promise is settled exactly once, with a value or with an error.
// Any number of goroutines can wait for it; all of them observe the same outcome.
package promise

import (
	"context"
	"sync"
)

type Promise[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// Resolve settles the paired Promise. Calls after the first are ignored.
type Resolve[T any] func(T, error)

// New creates an unsettled Promise and the function to settle it.
func New[T any]() (*Promise[T], Resolve[T]) {
	p := &Promise[T]{done: make(chan struct{})}
	return p, p.settle
}

// Go runs f in a new goroutine and returns a Promise of its result.
func Go[T any](ctx context.Context, f func(context.Context) (T, error)) *Promise[T] {
	p, resolve := New[T]()
	go func() {
		resolve(f(ctx))
	}()
	return p
}

// Resolved returns a Promise already settled with the pair.
func Resolved[T any](value T, err error) *Promise[T] {
	p, resolve := New[T]()
	resolve(value, err)
	return p
}

func (p *Promise[T]) settle(value T, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// Done is closed when the Promise is settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Promise is settled or ctx is done.
//
// ctx bounds only this wait. The work behind the Promise goes on.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}

	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return *new(T), ctx.Err()
	}
}

// Then derives a Promise settled with f(value), or with the error of p.
//
// f is not called when p is settled with an error.
func Then[T any, R any](p *Promise[T], f func(T) (R, error)) *Promise[R] {
	next, resolve := New[R]()
	go func() {
		<-p.done
		if p.err != nil {
			resolve(*new(R), p.err)
			return
		}
		resolve(f(p.value))
	}()
	return next
}
