// Package lock provides keyed mutual exclusion for concurrent session and
// balance operations.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed hands out one mutex per key. Entries are reference counted and
// removed once nobody holds or waits on them, so the table never grows with
// dead keys.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

// NewKeyed creates an empty lock table.
func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{locks: make(map[K]*entry)}
}

func (l *Keyed[K]) acquire(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Keyed[K]) release(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until the key's mutex is held.
func (l *Keyed[K]) Lock(key K) {
	l.acquire(key).mu.Lock()
}

// TryLock acquires the key's mutex without blocking. It returns false when
// another holder is active, which callers use to drop duplicate in-flight
// events rather than queue them.
func (l *Keyed[K]) TryLock(key K) bool {
	e := l.acquire(key)
	if e.mu.TryLock() {
		return true
	}
	l.release(key, e)
	return false
}

// Unlock releases the key's mutex. Calling it for a key that is not held is
// a programming error, as with sync.Mutex.
func (l *Keyed[K]) Unlock(key K) {
	l.mu.Lock()
	e, ok := l.locks[key]
	l.mu.Unlock()
	if !ok {
		panic("lock: unlock of unheld key")
	}
	e.mu.Unlock()
	l.release(key, e)
}

// WithLock runs fn while holding the key's mutex.
func (l *Keyed[K]) WithLock(key K, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// Len reports how many keys currently have holders or waiters.
func (l *Keyed[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
