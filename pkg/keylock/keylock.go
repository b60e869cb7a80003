// Package keylock provides in-process mutual exclusion per string key.
//
// A lock taken through Lock is recorded on the returned context, so a nested
// Lock for the same key with that context does not block. The context must not
// be shared with other goroutines while the lock is held.
package keylock

import (
	"context"
	"sync"
)

// Locker hands out one lock per key. Keys that are not held use no memory.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

type heldCtxKey struct{ l *Locker }

type held struct {
	key    string
	parent *held
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Holds reports whether ctx already carries the lock for key.
func (l *Locker) Holds(ctx context.Context, key string) bool {
	h, _ := ctx.Value(heldCtxKey{l}).(*held)
	for ; h != nil; h = h.parent {
		if h.key == key {
			return true
		}
	}
	return false
}

// Lock blocks until key is acquired or ctx is done. The returned unlock is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	if l.Holds(ctx, key) {
		return ctx, func() {}, nil
	}

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return ctx, func() {}, ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}

	parent, _ := ctx.Value(heldCtxKey{l}).(*held)
	return context.WithValue(ctx, heldCtxKey{l}, &held{key: key, parent: parent}), unlock, nil
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
