// ABOUTME: Allocation layout: one block holding a header followed by the user object
// ABOUTME: Raw user pointers map to their header by subtracting the fixed header size

package gc

import (
	"unsafe"

	// The header index is keyed by object addresses, which assumes heap
	// objects do not move for their whole registered lifetime.
	_ "go4.org/unsafe/assume-no-moving-gc"
)

// allocColor is an allocation's color in the two-color mark-and-sweep
// algorithm. Gray is represented by membership in the collector's worklist
// rather than a third color value.
type allocColor uint8

const (
	colorWhite allocColor = iota // not reached yet; freed by the sweep
	colorBlack                   // reached from a root; kept
)

// allocHeader is the metadata stored immediately before every user object.
// The trailing padding keeps the struct size a multiple of 8 on both 32-bit
// and 64-bit targets, so the user object always starts exactly headerSize
// bytes after the block and a raw user pointer minus headerSize is always
// the header address.
type allocHeader struct {
	alloc *allocation
	typ   *TypeInfo
	color allocColor
	_     [7]byte
}

// headerSize is the fixed distance between a block start and its user object
const headerSize = unsafe.Sizeof(allocHeader{})

// block is the single host allocation backing one GC-managed object:
// [ allocHeader | user object of type T ].
type block[T any] struct {
	header allocHeader
	obj    T
}

// allocation wraps one live block. While it exists it is registered in the
// collector's allocation set and header index, both under the collector lock.
type allocation struct {
	hdr *allocHeader
	obj unsafe.Pointer // start of the user object inside the block

	// blockRef pins the backing block for the host runtime. Cleared by
	// destroy, which is what actually releases the memory.
	blockRef any
}

// typeInfo returns the type record of the object held by this allocation
func (a *allocation) typeInfo() *TypeInfo { return a.hdr.typ }

// headerKey returns the address used to index this allocation's header
func (a *allocation) headerKey() uintptr { return uintptr(unsafe.Pointer(a.hdr)) }

// newAllocation allocates and constructs one GC-managed object of type T.
// The caller must hold the collector lock. Steps:
//
//  1. allocate the block and place the header with color white
//  2. register the allocation in the collector tables
//  3. push the allocation on the construction stack
//  4. construct embedded handle/container fields, then run the user ctor;
//     nodes constructed during this window attribute themselves to this
//     allocation (or to a nested one pushed by a recursive Make)
//  5. pop the construction stack
//  6. freeze the type's field offsets
func newAllocation[T any](c *collector, ctor func(*T)) *allocation {
	ti := TypeInfoOf[T]()

	blk := new(block[T])
	a := &allocation{
		hdr:      &blk.header,
		obj:      unsafe.Pointer(&blk.obj),
		blockRef: blk,
	}
	blk.header = allocHeader{alloc: a, typ: ti, color: colorWhite}

	c.registerAllocation(a)

	c.constructing.push(a)
	func() {
		defer c.constructing.popExpecting(a)
		initEmbeddedNodes(ti.typ, a.obj)
		if ctor != nil {
			ctor((*T)(a.obj))
		}
	}()

	c.finalizeTypeFields(ti)
	debugLog("allocated", "type", ti.TypeName(), "size", uint64(ti.size))
	return a
}

// destroy finalizes the user object and releases the block.
// Called only by the sweep phase, under the collector lock. The finalizer
// may touch the object's own handles: they are still intact at this point.
func (a *allocation) destroy() {
	if fin := a.hdr.typ.finalize; fin != nil {
		fin(a.obj)
	}
	a.blockRef = nil
}
