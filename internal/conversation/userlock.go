package conversation

import "sync"

// userLock serializes conversation turns per user. Two near-simultaneous
// messages from the same phone would otherwise race on the context row's
// read-modify-write cycle and overwrite each other's state.
type userLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLock() *userLock {
	return &userLock{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for one key and returns its unlock function.
func (l *userLock) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
