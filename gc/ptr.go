// ABOUTME: Smart handle to at most one GC allocation, the unit of reachability
// ABOUTME: Handles self-register as roots or as fields of the object constructing them

package gc

import (
	"unsafe"
)

// ptrBase is the non-generic core of a handle: the node flags plus the bound
// allocation. The trace reads handles through this layout, so it must stay
// the first field of Ptr.
type ptrBase struct {
	node
	target *allocation
}

// constructEmbedded registers the handle with the collector during the
// construction of its enclosing GC object. Implements embeddedNode.
func (p *ptrBase) constructEmbedded() {
	p.construct()
}

// construct performs registration for any handle, embedded or not
func (p *ptrBase) construct() {
	if p.registered {
		criticalError("handle constructed twice")
	}
	p.registered = true
	p.target = nil
	p.isRoot = theCollector.onNodeConstructed(unsafe.Pointer(p), nodeKindHandle)
}

// ensureConstructed rejects use of a zero-value handle that was never
// constructed with NewPtr, Init or by the allocation factory.
func (p *ptrBase) ensureConstructed() {
	if !p.registered {
		criticalError("handle used before construction (missing NewPtr, Init or Make)")
	}
}

// Ptr is a smart handle pointing to at most one GC-managed object of type T.
//
// A handle must be constructed before use: NewPtr returns a constructed
// handle, Init constructs a handle embedded by value in non-GC memory, and
// the Make factory constructs handle fields of GC objects automatically.
// A handle constructed outside any GC object is a root; the objects it can
// reach are never freed. Root handles must be released with Drop.
//
// Handles must not be copied with the assignment operator; rebind with
// SetPtr or MoveFrom instead.
type Ptr[T any] struct {
	ptrBase
}

// NewPtr constructs a new empty handle. The handle lives outside any GC
// object, so it joins the root set; release it with Drop.
func NewPtr[T any]() *Ptr[T] {
	p := new(Ptr[T])
	p.construct()
	return p
}

// Init constructs a handle embedded by value in non-GC memory, such as a
// stack variable or a field of an ordinary heap struct. Such a handle is a
// root. Calling Init on an already constructed handle is a critical error.
func (p *Ptr[T]) Init() {
	p.construct()
}

// Drop destructs the handle. A root handle is removed from the root set;
// objects it alone kept reachable become garbage for the next Collect.
// Calling Set, SetPtr, MoveFrom or Drop on a dropped handle is a critical
// error; Get, IsNil and Same do not check and report an empty handle.
func (p *Ptr[T]) Drop() {
	p.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if p.isRoot {
		c.onRootNodeDestroyed(unsafe.Pointer(&p.ptrBase), nodeKindHandle)
	}
	p.target = nil
	p.registered = false
	p.isRoot = false
}

// Set rebinds the handle to the GC object that target points to, or clears
// it when target is nil. The pointer must have been produced by Make for
// this type or for a type that embeds T as its first field (an upcast);
// anything else, including a pointer to a non-first embedded base, fires the
// critical-error callback and leaves the handle unchanged.
func (p *Ptr[T]) Set(target *T) {
	p.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if target == nil {
		p.target = nil
		return
	}
	p.target = c.allocationForUserObject(unsafe.Pointer(target))
}

// SetPtr rebinds the handle to the same allocation another handle is bound
// to. The source is already validated, so no lookup happens. A nil or empty
// source clears the handle.
func (p *Ptr[T]) SetPtr(o *Ptr[T]) {
	p.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if o == nil {
		p.target = nil
		return
	}
	p.target = o.target
}

// MoveFrom rebinds the handle to the source's allocation and clears the
// source. Both handles keep their own root flag.
func (p *Ptr[T]) MoveFrom(o *Ptr[T]) {
	p.ensureConstructed()
	o.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	p.target = o.target
	o.target = nil
}

// Get returns the object the handle is bound to, or nil for an empty handle.
// Reads do not take the collector lock.
func (p *Ptr[T]) Get() *T {
	if t := p.target; t != nil {
		return (*T)(t.obj)
	}
	return nil
}

// IsNil reports whether the handle is empty
func (p *Ptr[T]) IsNil() bool {
	return p.target == nil
}

// Same reports whether both handles are bound to the same object.
// Two empty handles are the same.
func (p *Ptr[T]) Same(o *Ptr[T]) bool {
	if o == nil {
		return p.target == nil
	}
	return p.target == o.target
}

// Make allocates a new GC-managed object of type T, runs ctor on it (ctor
// may be nil) and returns a fresh root handle bound to it. Handle and
// container fields of T are constructed before ctor runs, so ctor can
// assign to them. ctor may itself call Make; nodes of the nested object
// attribute to the nested allocation.
//
// The returned handle must be released with Drop when no longer needed.
func Make[T any](ctor func(*T)) *Ptr[T] {
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()

	a := newAllocation[T](c, ctor)
	p := NewPtr[T]()
	p.target = a
	return p
}
