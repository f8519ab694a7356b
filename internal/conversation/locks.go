package conversation

import "sync"

// userLocks serializes work per user. Entries are dropped once nobody
// holds or waits for them.
type userLocks struct {
	mu   sync.Mutex
	held map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until userID is free and returns the matching unlock.
func (l *userLocks) lock(userID int64) (unlock func()) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[int64]*userLock)
	}
	ul, ok := l.held[userID]
	if !ok {
		ul = &userLock{}
		l.held[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		if ul.refs--; ul.refs == 0 {
			delete(l.held, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
