// ABOUTME: Reentrant mutex used as the single collector lock
// ABOUTME: Tracks the owning goroutine so sweep-invoked finalizers can re-enter

package gc

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// recursiveMutex is a mutex that may be re-acquired by the goroutine that
// already holds it. The collector needs this: a finalizer running during
// sweep may call back into handle or container operations, and those paths
// acquire the collector lock again.
type recursiveMutex struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine id of the holder, 0 when unlocked
	depth int          // recursion depth, guarded by mu
}

// Lock acquires the mutex, or bumps the depth if this goroutine holds it.
func (m *recursiveMutex) Lock() {
	id := goid()
	if m.owner.Load() == id {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(id)
	m.depth = 1
}

// Unlock releases one level of the mutex.
func (m *recursiveMutex) Unlock() {
	if m.owner.Load() != goid() {
		criticalError("collector lock unlocked by a goroutine that does not hold it")
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// goid returns the id of the calling goroutine.
// Parsed from the "goroutine N [status]:" header emitted by runtime.Stack;
// goroutine ids start at 1, so 0 is free to mean "no owner".
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = len("goroutine ")
	var id int64
	for _, c := range buf[prefix:n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
