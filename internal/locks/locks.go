// Package locks provides per-user mutual exclusion for the
// "mutate entries + recompute stats" critical section. Operations for
// different users never contend; operations for the same user serialize in
// arrival order.
package locks

import "sync"

// UserLocker hands out one mutex per user key. Lock entries are kept for the
// life of the process; the active user set is small relative to memory.
type UserLocker struct {
	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewUserLocker() *UserLocker {
	return &UserLocker{users: make(map[string]*sync.Mutex)}
}

func (l *UserLocker) get(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.users[userID]
	if !ok {
		m = &sync.Mutex{}
		l.users[userID] = m
	}
	return m
}

// Lock acquires the user's mutex, blocking until it is available.
func (l *UserLocker) Lock(userID string) { l.get(userID).Lock() }

// Unlock releases the user's mutex.
func (l *UserLocker) Unlock(userID string) { l.get(userID).Unlock() }

// Do runs fn while holding the user's mutex.
func (l *UserLocker) Do(userID string, fn func()) {
	m := l.get(userID)
	m.Lock()
	defer m.Unlock()
	fn()
}
