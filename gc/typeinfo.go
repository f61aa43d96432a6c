// ABOUTME: Per-user-type records with learned handle and container field offsets
// ABOUTME: Offsets are taught by node self-registration during first construction

package gc

import (
	"math"
	"reflect"
	"sync"
	"unsafe"
)

// Finalizer may be implemented by user types managed by the collector.
// Finalize runs when the sweep phase releases the object, before its memory
// is returned to the host runtime. It runs under the collector lock and must
// not call Collect. It may touch the object's own handles and containers.
type Finalizer interface {
	Finalize()
}

// TypeInfo describes one user type managed by the collector.
// There is exactly one TypeInfo per type for the lifetime of the process.
type TypeInfo struct {
	size     uintptr
	typ      reflect.Type
	finalize func(unsafe.Pointer)

	// Byte offsets from the user object's start to every embedded handle
	// and container field, including fields of embedded (base) structs.
	// Incomplete until fieldsFinalized is true. Guarded by the collector
	// lock: offsets are only appended while the factory holds it, and only
	// read by the trace, which also holds it.
	handleFieldOffsets    []uint32
	containerFieldOffsets []uint32

	// fieldsFinalized flips to true exactly once, right after the user
	// constructor of the first allocation of this type returns. From then
	// on the offset lists are frozen.
	fieldsFinalized bool
}

// Size returns the size of the user type in bytes.
func (ti *TypeInfo) Size() uintptr { return ti.size }

// TypeName returns the name of the user type, for diagnostics.
func (ti *TypeInfo) TypeName() string { return ti.typ.String() }

// FieldsFinalized reports whether the offset lists are complete.
func (ti *TypeInfo) FieldsFinalized() bool { return ti.fieldsFinalized }

// HandleFieldOffsets returns the learned byte offsets of embedded handle
// fields. The returned slice must not be modified. Used by tests.
func (ti *TypeInfo) HandleFieldOffsets() []uint32 { return ti.handleFieldOffsets }

// ContainerFieldOffsets returns the learned byte offsets of embedded
// container fields. The returned slice must not be modified. Used by tests.
func (ti *TypeInfo) ContainerFieldOffsets() []uint32 { return ti.containerFieldOffsets }

// typeRegistry holds the per-type singletons
var typeRegistry = struct {
	mu    sync.Mutex
	types map[reflect.Type]*TypeInfo
}{types: make(map[reflect.Type]*TypeInfo)}

// TypeInfoOf returns the TypeInfo singleton for T, creating it on first use.
func TypeInfoOf[T any]() *TypeInfo {
	t := reflect.TypeOf((*T)(nil)).Elem()
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	if ti, ok := typeRegistry.types[t]; ok {
		return ti
	}
	ti := &TypeInfo{
		size:     t.Size(),
		typ:      t,
		finalize: finalizeThunk[T](),
	}
	typeRegistry.types[t] = ti
	return ti
}

// finalizeThunk returns a function invoking T's Finalize method on a raw
// user-object pointer, or nil when T does not implement Finalizer.
func finalizeThunk[T any]() func(unsafe.Pointer) {
	if _, ok := any((*T)(nil)).(Finalizer); !ok {
		return nil
	}
	return func(obj unsafe.Pointer) {
		any((*T)(obj)).(Finalizer).Finalize()
	}
}

// tryRegisterNodeOffset checks whether the node at nodeAddr lies inside the
// user-object memory range of owner. If it does not, false is returned and
// nothing changes. If it does, the node's byte offset is recorded in the
// matching offset list, unless the lists are already finalized, and true is
// returned either way.
//
// Called with the construction-stack mutex held. The collector lock is held
// too when the node is constructed inside Make; a node constructed outside
// any Make reaches this without it.
func (ti *TypeInfo) tryRegisterNodeOffset(nodeAddr unsafe.Pointer, kind nodeKind, owner *allocation) bool {
	begin := uintptr(owner.obj)
	addr := uintptr(nodeAddr)
	if addr < begin || addr >= begin+ti.size {
		return false
	}
	if ti.fieldsFinalized {
		return true
	}

	full := addr - begin
	if full > math.MaxUint32 {
		criticalError("embedded node offset exceeds the limit of the offset type")
	}
	off := uint32(full)

	// A recursive constructor can construct a second instance of the same
	// type before the first finishes, so the same offset may try to
	// register twice. Keep one entry per offset.
	switch kind {
	case nodeKindContainer:
		if !containsOffset(ti.containerFieldOffsets, off) {
			ti.containerFieldOffsets = append(ti.containerFieldOffsets, off)
		}
	default:
		if !containsOffset(ti.handleFieldOffsets, off) {
			ti.handleFieldOffsets = append(ti.handleFieldOffsets, off)
		}
	}
	return true
}

// markFieldsFinalized freezes the offset lists. Idempotent.
func (ti *TypeInfo) markFieldsFinalized() {
	ti.fieldsFinalized = true
}

// containsOffset reports whether off is already recorded in offsets
func containsOffset(offsets []uint32, off uint32) bool {
	for _, o := range offsets {
		if o == off {
			return true
		}
	}
	return false
}
