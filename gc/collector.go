// ABOUTME: The collector singleton: root sets, allocation tables, mark and sweep
// ABOUTME: One reentrant lock serializes all mutator work against collection

package gc

import (
	"unsafe"
)

// collector owns the node graph. There is one per process, created when the
// package is initialized rather than on first use; handles and containers must be
// dropped before the process exits, not after.
type collector struct {
	// lock is the synchronization backbone. It guards the root sets, the
	// allocation tables, every handle rebind, every container mutation,
	// every allocation birth and the whole of collect. Reentrant, because
	// finalizers run by the sweep may re-enter locking paths.
	lock recursiveMutex

	rootHandles    map[*ptrBase]struct{}
	rootContainers map[*containerBase]struct{}

	// allocations and headerIndex mirror each other. headerIndex exists
	// purely for O(1) validation of raw user pointers: the key is the
	// address of the header that sits headerSize bytes before the object.
	allocations map[*allocation]struct{}
	headerIndex map[uintptr]*allocation

	constructing constructionStack

	// gray is the reusable trace worklist: allocations discovered
	// reachable but not yet scanned for outgoing references.
	gray []*allocation
}

// theCollector is the process-wide singleton
var theCollector = &collector{
	rootHandles:    make(map[*ptrBase]struct{}),
	rootContainers: make(map[*containerBase]struct{}),
	allocations:    make(map[*allocation]struct{}),
	headerIndex:    make(map[uintptr]*allocation),
}

// registerAllocation enters a newborn allocation into both tables.
// Caller holds the collector lock.
func (c *collector) registerAllocation(a *allocation) {
	c.allocations[a] = struct{}{}
	c.headerIndex[a.headerKey()] = a
}

// allocationForUserObject validates a raw user pointer and returns its
// allocation. The header of a GC-managed object always sits exactly
// headerSize bytes before it, so anything whose computed header address is
// not in the index was not produced by Make, or points at a non-first
// embedded base. Caller holds the collector lock.
func (c *collector) allocationForUserObject(p unsafe.Pointer) *allocation {
	addr := uintptr(p)
	if addr < headerSize {
		criticalError("assigned pointer is not a GC object pointer")
	}
	a, ok := c.headerIndex[addr-headerSize]
	if !ok {
		criticalError(
			"assigned pointer does not point into a live GC allocation " +
				"(not created by Make, or points to a non-first embedded base)")
	}
	return a
}

// onNodeConstructed is called by every handle and container constructor.
// It reports whether the node is a root. A node is a root exactly when its
// address is not inside the user-object range of any allocation currently
// under construction; otherwise its offset was just recorded with its owner
// and it is reached only through that owner.
func (c *collector) onNodeConstructed(n unsafe.Pointer, kind nodeKind) bool {
	if owner := c.constructing.tryAttribute(n, kind); owner != nil {
		return false
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	switch kind {
	case nodeKindContainer:
		c.rootContainers[(*containerBase)(n)] = struct{}{}
	default:
		c.rootHandles[(*ptrBase)(n)] = struct{}{}
	}
	return true
}

// onRootNodeDestroyed removes a root node from the root set.
// Caller holds the collector lock, which also guarantees no trace is
// currently walking this root.
func (c *collector) onRootNodeDestroyed(n unsafe.Pointer, kind nodeKind) {
	switch kind {
	case nodeKindContainer:
		key := (*containerBase)(n)
		if _, ok := c.rootContainers[key]; !ok {
			criticalError("destroyed root container is not in the root set")
		}
		delete(c.rootContainers, key)
	default:
		key := (*ptrBase)(n)
		if _, ok := c.rootHandles[key]; !ok {
			criticalError("destroyed root handle is not in the root set")
		}
		delete(c.rootHandles, key)
	}
}

// enqueue puts an allocation on the gray worklist
func (c *collector) enqueue(a *allocation) {
	c.gray = append(c.gray, a)
}

// collect runs one stop-the-world mark-and-sweep cycle and returns the
// number of user objects freed. The entire cycle holds the collector lock,
// so the graph it sees is exactly the graph that existed when the lock was
// acquired.
func (c *collector) collect() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	// Whiten every live allocation.
	for a := range c.allocations {
		a.hdr.color = colorWhite
	}

	// Mark roots.
	c.gray = c.gray[:0]
	for h := range c.rootHandles {
		if t := h.target; t != nil {
			c.enqueue(t)
		}
	}
	for ct := range c.rootContainers {
		ct.iterateItems(func(h *ptrBase) {
			if t := h.target; t != nil && t.hdr.color == colorWhite {
				c.enqueue(t)
			}
		})
	}

	// Mark everything reachable. Each allocation is scanned at most once,
	// so the worklist drains in finite steps.
	for len(c.gray) > 0 {
		a := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		if a.hdr.color == colorBlack {
			continue
		}
		a.hdr.color = colorBlack

		ti := a.typeInfo()
		for _, off := range ti.handleFieldOffsets {
			h := (*ptrBase)(unsafe.Add(a.obj, uintptr(off)))
			if t := h.target; t != nil && t.hdr.color == colorWhite {
				c.enqueue(t)
			}
		}
		for _, off := range ti.containerFieldOffsets {
			ct := (*containerBase)(unsafe.Add(a.obj, uintptr(off)))
			ct.iterateItems(func(h *ptrBase) {
				if t := h.target; t != nil && t.hdr.color == colorWhite {
					c.enqueue(t)
				}
			})
		}
	}

	// Sweep: everything still white is unreachable.
	freed := 0
	for a := range c.allocations {
		if a.hdr.color != colorWhite {
			continue
		}
		delete(c.allocations, a)
		delete(c.headerIndex, a.headerKey())
		a.destroy()
		freed++
	}

	debugLog("collection finished", "freed", freed, "alive", len(c.allocations))
	return freed
}

// finalizeTypeFields freezes a type's learned offsets under the mutex that
// guards attribution, so a concurrent root-node construction never observes
// the flag mid-flip.
func (c *collector) finalizeTypeFields(ti *TypeInfo) {
	c.constructing.mu.Lock()
	defer c.constructing.mu.Unlock()
	ti.markFieldsFinalized()
}

// RootSetSnapshot is a point-in-time copy of the root set, for tests and
// debugging. Addresses identify nodes; they must not be dereferenced.
type RootSetSnapshot struct {
	// Handles holds the addresses of all root handle nodes
	Handles []uintptr
	// Containers holds the addresses of all root container nodes
	Containers []uintptr
}

// Collect runs one garbage collection cycle and returns the number of user
// objects that were freed.
func Collect() int {
	return theCollector.collect()
}

// AliveAllocationCount returns the number of GC-managed objects that have
// been created and not yet freed.
func AliveAllocationCount() int {
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.allocations)
}

// RootSet returns a snapshot of the current root set, taken under the
// collector lock. For tests and debugging only.
func RootSet() RootSetSnapshot {
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	snap := RootSetSnapshot{
		Handles:    make([]uintptr, 0, len(c.rootHandles)),
		Containers: make([]uintptr, 0, len(c.rootContainers)),
	}
	for h := range c.rootHandles {
		snap.Handles = append(snap.Handles, uintptr(unsafe.Pointer(h)))
	}
	for ct := range c.rootContainers {
		snap.Containers = append(snap.Containers, uintptr(unsafe.Pointer(ct)))
	}
	return snap
}
