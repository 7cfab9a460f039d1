package services

import (
	"fmt"
	"sync"
)

// entityLocks serializes mutations per entity id so two concurrent
// AddItem calls on the same order, or Assign vs Release on the same
// table, cannot interleave. The database transaction still guards
// cross-process writers; this keeps a single process honest.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for (kind, id) and returns the unlock func.
func (e *entityLocks) acquire(kind string, id uint) func() {
	key := fmt.Sprintf("%s:%d", kind, id)

	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}
