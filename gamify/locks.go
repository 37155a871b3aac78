package gamify

import "sync"

// =============================================================================
// ENTITY LOCKS - Per-employee serialization
// =============================================================================

// EntityLocks serializes mutations per employee id. Two concurrent check-ins
// for the same employee would otherwise both read "no event today" and both
// append; two concurrent redemptions would both read a stale balance.
// Operations on different employees proceed in parallel.
//
// The check-in and reward services must share one EntityLocks instance so a
// redemption cannot interleave with a check-in for the same employee.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[EmployeeID]*sync.Mutex)}
}

// Acquire locks the employee's mutex and returns the release function.
func (l *EntityLocks) Acquire(id EmployeeID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
