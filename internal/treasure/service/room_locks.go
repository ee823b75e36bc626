package service

import "sync"

// roomLocks serializes mutating operations per room. Every public mutation
// is a read-validate-write sequence against the store; without a per-room
// lock two concurrent requests would validate against the same snapshot
// and the later write would erase the earlier one, breaking strict turn
// alternation.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[uint32]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[uint32]*sync.Mutex)}
}

// lock acquires the room's mutex and returns the matching unlock.
func (l *roomLocks) lock(roomID uint32) func() {
	l.mu.Lock()
	m, ok := l.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.rooms[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
