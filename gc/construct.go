// ABOUTME: LIFO stack of allocations whose user constructor is currently running
// ABOUTME: Attributes freshly constructed nodes to their innermost owning allocation

package gc

import (
	"sync"
	"unsafe"
)

// constructionStack tracks allocations that are running their user
// constructor. Make may be called recursively from inside a constructor, so
// the stack can hold more than one entry; attribution walks it from the top
// so that nodes embedded in the innermost object claim their owner first.
//
// The stack has its own short-lived mutex. When both locks are needed this
// one is always acquired inside the collector lock, never the other way
// around.
type constructionStack struct {
	mu    sync.Mutex
	stack []*allocation
}

// push records that a's user constructor is starting
func (s *constructionStack) push(a *allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack, a)
}

// popExpecting removes the top entry, which must be a.
// Anything else means the construction bracket was corrupted.
func (s *constructionStack) popExpecting(a *allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.stack)
	if n == 0 || s.stack[n-1] != a {
		criticalError("construction stack is unbalanced: popped allocation is not on top")
	}
	s.stack[n-1] = nil
	s.stack = s.stack[:n-1]
}

// tryAttribute checks whether the node at nodeAddr is embedded in one of the
// allocations currently under construction. The first owner (from the top of
// the stack) whose user-object range contains the address claims the node
// and records its offset. Returns nil when the node is not a field of any
// constructing allocation, meaning it must become a root.
func (s *constructionStack) tryAttribute(nodeAddr unsafe.Pointer, kind nodeKind) *allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.stack) - 1; i >= 0; i-- {
		owner := s.stack[i]
		if owner.typeInfo().tryRegisterNodeOffset(nodeAddr, kind, owner) {
			return owner
		}
	}
	return nil
}
