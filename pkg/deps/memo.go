package deps

import (
	"context"
	stderrors "errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches lookups for one resolution and collapses concurrent calls
// for the same key into one. Context errors are not cached.
type memo[T any] struct {
	mu    sync.Mutex
	done  map[string]memoEntry[T]
	group singleflight.Group
}

type memoEntry[T any] struct {
	val T
	err error
}

func newMemo[T any]() *memo[T] {
	return &memo[T]{done: make(map[string]memoEntry[T])}
}

func (m *memo[T]) get(key string, fetch func() (T, error)) (T, error) {
	m.mu.Lock()
	e, ok := m.done[key]
	m.mu.Unlock()
	if ok {
		return e.val, e.err
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		val, err := fetch()
		if !isContextErr(err) {
			m.mu.Lock()
			m.done[key] = memoEntry[T]{val: val, err: err}
			m.mu.Unlock()
		}
		return val, err
	})
	val, _ := v.(T)
	return val, err
}

func isContextErr(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
