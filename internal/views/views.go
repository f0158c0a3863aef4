// Package views holds the request lifecycle that every form view owns: idle,
// submitting, then success or error, with superseded submissions discarded.
package views

import (
	"context"
	"errors"
	"sync"
)

// Status is a position in the request lifecycle.
type Status int

const (
	Idle Status = iota
	Submitting
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Submit when a newer submission or a Reset
// replaced the call before it finished.
var ErrSuperseded = errors.New("submission superseded")

// Snapshot is a consistent copy of a lifecycle. Result is set only in
// Success and Err only in Failed.
type Snapshot[T any] struct {
	Status     Status
	Result     T
	Err        error
	Generation uint64
}

// Lifecycle tracks one view's request state. Each Submit takes a new
// generation and cancels the previous in-flight call; an outcome whose
// generation is no longer current is dropped.
type Lifecycle[T any] struct {
	mu         sync.Mutex
	status     Status
	result     T
	err        error
	generation uint64
	cancel     context.CancelFunc
}

// Submit moves the lifecycle to Submitting and runs call exactly once. The
// outcome is recorded only if no newer submission or reset happened
// meanwhile; otherwise Submit returns ErrSuperseded.
func (l *Lifecycle[T]) Submit(ctx context.Context, call func(context.Context) (T, error)) (Snapshot[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	gen := l.generation
	l.cancel = cancel
	l.status = Submitting
	var zero T
	l.result = zero
	l.err = nil
	l.mu.Unlock()

	result, err := call(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		return Snapshot[T]{}, ErrSuperseded
	}

	l.cancel = nil
	if err != nil {
		l.status = Failed
		l.err = err
	} else {
		l.status = Success
		l.result = result
	}
	return l.snapshot(), nil
}

// Reset cancels any in-flight call and returns to Idle, discarding the
// previous result or error.
func (l *Lifecycle[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.generation++
	l.status = Idle
	var zero T
	l.result = zero
	l.err = nil
}

// Snapshot returns the current state.
func (l *Lifecycle[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Lifecycle[T]) snapshot() Snapshot[T] {
	return Snapshot[T]{
		Status:     l.status,
		Result:     l.result,
		Err:        l.err,
		Generation: l.generation,
	}
}
