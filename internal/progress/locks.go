package progress

import "sync"

// keyedLocks serializes work per (user, course) key so a completed-set
// mutation and the percentage recompute that follows it are never
// interleaved with another completion for the same pair.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: map[string]*lockEntry{}}
}

// lock acquires the mutex for key and returns its release func. Entries are
// reference-counted so the table does not grow with every pair ever seen.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
