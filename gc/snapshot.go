// ABOUTME: Captures the live object graph as a graph.MemGraph snapshot
// ABOUTME: Taken under the collector lock, so the view is a frozen world

package gc

import (
	"unsafe"

	"github.com/prateek/sweepgc/graph"
)

// Snapshot captures the current object graph: every live allocation becomes
// a graph.Object whose Refs are the allocations reachable through its
// handle and container fields, and the snapshot roots are the allocations
// directly referenced from the root node set. The whole capture runs under
// the collector lock and observes a frozen world.
//
// The snapshot shares nothing with the collector; analyzing it afterwards
// needs no lock. Object IDs are the user-object addresses at capture time.
func Snapshot() *graph.MemGraph {
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()

	g := graph.NewMemGraph()
	for a := range c.allocations {
		g.AddObject(&graph.Object{
			ID:       objID(a),
			TypeName: a.typeInfo().TypeName(),
			Size:     uint64(a.typeInfo().Size()),
			Refs:     c.references(a),
		})
	}

	var roots graph.Roots
	seen := make(map[graph.ObjID]bool)
	addRoot := func(t *allocation) {
		if t == nil {
			return
		}
		if id := objID(t); !seen[id] {
			seen[id] = true
			roots.IDs = append(roots.IDs, id)
		}
	}
	for h := range c.rootHandles {
		addRoot(h.target)
	}
	for ct := range c.rootContainers {
		ct.iterateItems(func(h *ptrBase) { addRoot(h.target) })
	}
	g.SetRoots(roots)
	return g
}

// references collects the allocations one allocation points to, walking the
// same learned offsets and container callbacks the trace walks.
// Caller holds the collector lock.
func (c *collector) references(a *allocation) []graph.ObjID {
	var refs []graph.ObjID
	ti := a.typeInfo()
	for _, off := range ti.handleFieldOffsets {
		h := (*ptrBase)(unsafe.Add(a.obj, uintptr(off)))
		if h.target != nil {
			refs = append(refs, objID(h.target))
		}
	}
	for _, off := range ti.containerFieldOffsets {
		ct := (*containerBase)(unsafe.Add(a.obj, uintptr(off)))
		ct.iterateItems(func(h *ptrBase) {
			if h.target != nil {
				refs = append(refs, objID(h.target))
			}
		})
	}
	return refs
}

// objID is the snapshot identity of an allocation
func objID(a *allocation) graph.ObjID {
	return graph.ObjID(uintptr(a.obj))
}
