package classify

import (
	"errors"
	"sync"
)

var errReleased = errors.New("artifact released")

// lazy runs load at most once, on first use, and caches its outcome.
// Concurrent first callers block until the single load finishes.
type lazy[T any] struct {
	load func() (T, error)

	mu   sync.Mutex
	done bool
	val  T
	err  error
}

func (l *lazy[T]) get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.done {
		l.done = true
		l.val, l.err = l.load()
	}
	return l.val, l.err
}

// release hands a successfully loaded value to fn and makes every later
// get fail. A value that was never loaded stays unloaded.
func (l *lazy[T]) release(fn func(T) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	loaded := l.done && l.err == nil
	val := l.val

	var zero T
	l.done, l.val, l.err = true, zero, errReleased

	if !loaded {
		return nil
	}
	return fn(val)
}
