package engine

import "sync"

// roomLocks hands out one mutex per active room and forgets it once no
// caller holds or waits for it.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// Do runs fn while holding roomID's lock.
func (r *roomLocks) Do(roomID string, fn func() error) error {
	r.mu.Lock()
	l, ok := r.locks[roomID]
	if !ok {
		l = &roomLock{}
		r.locks[roomID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	defer func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, roomID)
		}
		r.mu.Unlock()
	}()
	return fn()
}

func (r *roomLocks) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
