package app

import "sync"

// senderLocks serializes the turns of each sender inside this process.
type senderLocks struct {
	mu    sync.Mutex
	locks map[string]*senderLock
}

type senderLock struct {
	mu      sync.Mutex
	waiters int
}

func newSenderLocks() *senderLocks {
	return &senderLocks{locks: make(map[string]*senderLock)}
}

// lock blocks until senderID is free and returns the matching unlock.
func (l *senderLocks) lock(senderID string) func() {
	l.mu.Lock()
	sl, ok := l.locks[senderID]
	if !ok {
		sl = &senderLock{}
		l.locks[senderID] = sl
	}
	sl.waiters++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.waiters--
		if sl.waiters == 0 {
			delete(l.locks, senderID)
		}
		l.mu.Unlock()
	}
}
