// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "sync"

// entryLocks hands out one mutex per entry id so operations on the same
// entry serialize while operations on distinct entries run concurrently.
// Locks are never evicted; the table is bounded by the number of ids a
// session ever touches.
type entryLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the mutex for id and returns its unlock function.
func (l *entryLocks) acquire(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
