// ABOUTME: Dynamically sized container of handles, traced as a single graph node
// ABOUTME: Internal handles are never roots; the trace iterates them on demand

package gc

import (
	"unsafe"
)

// containerBase is the non-generic core of a container node. The trace
// reads containers through this layout, so it must stay the first field of
// Vec. iter is installed by the concrete container at construction and
// visits every handle the container currently stores.
type containerBase struct {
	node
	iter func(visit func(*ptrBase))
}

// iterateItems invokes the container's iteration callback.
// Called by the trace under the collector lock.
func (cb *containerBase) iterateItems(visit func(*ptrBase)) {
	if cb.iter != nil {
		cb.iter(visit)
	}
}

// Vec is a dynamically sized, ordered container of handles to GC-managed
// objects of type T. The container itself is one node in the object graph:
// embedded in a GC object it is traced through its owner, anywhere else it
// is a root and must be released with Drop.
//
// The handles held inside the container never join the root set; the
// container alone keeps their targets reachable.
//
// Every mutation that reshapes the storage takes the collector lock, so a
// concurrent collection never observes the container mid-change. Reads do
// not lock. Pointers returned by At are invalidated by growing mutations.
//
// Containers hold handles only; nesting containers is not supported.
type Vec[T any] struct {
	containerBase
	items []Ptr[T]
}

// NewVec constructs a new empty container. The container lives outside any
// GC object, so it joins the root set; release it with Drop.
func NewVec[T any]() *Vec[T] {
	v := new(Vec[T])
	v.Init()
	return v
}

// Init constructs a container embedded by value in non-GC memory. Such a
// container is a root. Calling Init on an already constructed container is
// a critical error.
func (v *Vec[T]) Init() {
	v.constructEmbedded()
}

// constructEmbedded registers the container with the collector.
// Implements embeddedNode for container fields of GC objects.
func (v *Vec[T]) constructEmbedded() {
	if v.registered {
		criticalError("container constructed twice")
	}
	v.registered = true
	v.items = nil
	v.iter = func(visit func(*ptrBase)) {
		for i := range v.items {
			visit(&v.items[i].ptrBase)
		}
	}
	v.isRoot = theCollector.onNodeConstructed(unsafe.Pointer(&v.containerBase), nodeKindContainer)
}

// ensureConstructed rejects use of a zero-value container
func (v *Vec[T]) ensureConstructed() {
	if !v.registered {
		criticalError("container used before construction (missing NewVec, Init or Make)")
	}
}

// Drop destructs the container. A root container is removed from the root
// set and the objects it alone kept reachable become garbage. The internal
// handles are not roots, so dropping them needs no extra bookkeeping.
func (v *Vec[T]) Drop() {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if v.isRoot {
		c.onRootNodeDestroyed(unsafe.Pointer(&v.containerBase), nodeKindContainer)
	}
	clearSlots(v.items)
	v.items = nil
	v.iter = nil
	v.registered = false
	v.isRoot = false
}

// newSlot creates an internal, never-root handle bound to target
func newSlot[T any](target *allocation) Ptr[T] {
	var p Ptr[T]
	p.registered = true
	p.target = target
	return p
}

// clearSlots empties a range of internal handles
func clearSlots[T any](slots []Ptr[T]) {
	for i := range slots {
		slots[i].target = nil
	}
}

// PushBack appends a handle bound to the same object as p.
// A nil p appends an empty slot.
func (v *Vec[T]) PushBack(p *Ptr[T]) {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	var target *allocation
	if p != nil {
		target = p.target
	}
	v.items = append(v.items, newSlot[T](target))
}

// PushBackObject appends a handle bound to the GC object target points to.
// The pointer is validated the same way Set validates it.
func (v *Vec[T]) PushBackObject(target *T) {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	var a *allocation
	if target != nil {
		a = c.allocationForUserObject(unsafe.Pointer(target))
	}
	v.items = append(v.items, newSlot[T](a))
}

// PopBack removes the last handle. Popping an empty container is a
// critical error.
func (v *Vec[T]) PopBack() {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	n := len(v.items)
	if n == 0 {
		criticalError("PopBack on an empty container")
	}
	v.items[n-1].target = nil
	v.items = v.items[:n-1]
}

// Insert inserts a handle bound to the same object as p before index i.
// i may equal Len, which appends.
func (v *Vec[T]) Insert(i int, p *Ptr[T]) {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if i < 0 || i > len(v.items) {
		criticalErrorf("Insert index %d out of range [0, %d]", i, len(v.items))
	}
	var target *allocation
	if p != nil {
		target = p.target
	}
	v.items = append(v.items, Ptr[T]{})
	copy(v.items[i+1:], v.items[i:])
	v.items[i] = newSlot[T](target)
}

// Erase removes the handle at index i.
func (v *Vec[T]) Erase(i int) {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if i < 0 || i >= len(v.items) {
		criticalErrorf("Erase index %d out of range [0, %d)", i, len(v.items))
	}
	copy(v.items[i:], v.items[i+1:])
	v.items[len(v.items)-1].target = nil
	v.items = v.items[:len(v.items)-1]
}

// Clear removes all handles, keeping the backing storage.
func (v *Vec[T]) Clear() {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	clearSlots(v.items)
	v.items = v.items[:0]
}

// Resize grows the container with empty slots or shrinks it to n handles.
func (v *Vec[T]) Resize(n int) {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if n < 0 {
		criticalErrorf("Resize to negative length %d", n)
	}
	for len(v.items) > n {
		v.items[len(v.items)-1].target = nil
		v.items = v.items[:len(v.items)-1]
	}
	for len(v.items) < n {
		v.items = append(v.items, newSlot[T](nil))
	}
}

// Reserve grows the backing storage to hold at least n handles without
// further reallocation.
func (v *Vec[T]) Reserve(n int) {
	v.ensureConstructed()
	if n < 0 {
		warn("Reserve called with a negative capacity; ignored")
		return
	}
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if n <= cap(v.items) {
		return
	}
	grown := make([]Ptr[T], len(v.items), n)
	copy(grown, v.items)
	v.items = grown
}

// ShrinkToFit reallocates the backing storage to the current length.
func (v *Vec[T]) ShrinkToFit() {
	v.ensureConstructed()
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	if cap(v.items) == len(v.items) {
		return
	}
	shrunk := make([]Ptr[T], len(v.items))
	copy(shrunk, v.items)
	v.items = shrunk
}

// CopyFrom replaces this container's contents with copies of the handles
// held by o.
func (v *Vec[T]) CopyFrom(o *Vec[T]) {
	v.ensureConstructed()
	o.ensureConstructed()
	if v == o {
		return
	}
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	clearSlots(v.items)
	v.items = v.items[:0]
	for i := range o.items {
		v.items = append(v.items, newSlot[T](o.items[i].target))
	}
}

// MoveFrom steals o's contents, leaving o empty.
func (v *Vec[T]) MoveFrom(o *Vec[T]) {
	v.ensureConstructed()
	o.ensureConstructed()
	if v == o {
		return
	}
	c := theCollector
	c.lock.Lock()
	defer c.lock.Unlock()
	clearSlots(v.items)
	v.items = o.items
	o.items = nil
}

// Len returns the number of handles stored.
func (v *Vec[T]) Len() int { return len(v.items) }

// Cap returns the capacity of the backing storage.
func (v *Vec[T]) Cap() int { return cap(v.items) }

// Empty reports whether the container stores no handles.
func (v *Vec[T]) Empty() bool { return len(v.items) == 0 }

// At returns the handle at index i. The returned handle stays owned by the
// container (it is never a root); it is invalidated by mutations that
// reshape the storage.
func (v *Vec[T]) At(i int) *Ptr[T] {
	if i < 0 || i >= len(v.items) {
		criticalErrorf("At index %d out of range [0, %d)", i, len(v.items))
	}
	return &v.items[i]
}

// Range calls fn for each stored handle in order until fn returns false.
func (v *Vec[T]) Range(fn func(i int, p *Ptr[T]) bool) {
	for i := range v.items {
		if !fn(i, &v.items[i]) {
			return
		}
	}
}

// Equal reports whether both containers hold the same number of handles
// bound to the same objects in the same order.
func (v *Vec[T]) Equal(o *Vec[T]) bool {
	if len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i].target != o.items[i].target {
			return false
		}
	}
	return true
}
