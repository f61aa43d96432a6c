// ABOUTME: Node base state shared by handles and containers
// ABOUTME: Implements the reflection walk that constructs nodes embedded in GC objects

package gc

import (
	"reflect"
	"unsafe"
)

// nodeKind distinguishes the two traceable node flavors
type nodeKind uint8

const (
	nodeKindHandle nodeKind = iota
	nodeKindContainer
)

// String returns a human-readable node kind, used in error messages.
func (k nodeKind) String() string {
	if k == nodeKindContainer {
		return "container"
	}
	return "handle"
}

// node is the state shared by every traceable node (Ptr and Vec).
// A node is either a root (not embedded in any GC allocation) or a field
// of exactly one allocation. isRoot is fixed at construction and never
// changes afterwards.
type node struct {
	registered bool
	isRoot     bool
}

// embeddedNode is implemented by *Ptr[T] and *Vec[T]. The allocation
// factory uses it to construct handle and container fields of a user type
// before the user constructor body runs, mirroring member-initialization
// order in languages with implicit field constructors.
type embeddedNode interface {
	constructEmbedded()
}

var embeddedNodeType = reflect.TypeOf((*embeddedNode)(nil)).Elem()

// initEmbeddedNodes walks the user type rooted at base and constructs every
// handle and container reachable through struct and array embedding. Each
// constructed node self-registers with the collector, which attributes it to
// the allocation currently under construction via the construction stack.
func initEmbeddedNodes(t reflect.Type, base unsafe.Pointer) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		initFieldNodes(f.Type, unsafe.Add(base, f.Offset))
	}
}

// initFieldNodes constructs the nodes inside one field of a user type
func initFieldNodes(t reflect.Type, addr unsafe.Pointer) {
	if reflect.PointerTo(t).Implements(embeddedNodeType) {
		// reflect.NewAt is used instead of Field().Addr() so that
		// unexported node fields are constructed too.
		reflect.NewAt(t, addr).Interface().(embeddedNode).constructEmbedded()
		return
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			initFieldNodes(f.Type, unsafe.Add(addr, f.Offset))
		}
	case reflect.Array:
		elem := t.Elem()
		for i := 0; i < t.Len(); i++ {
			initFieldNodes(elem, unsafe.Add(addr, uintptr(i)*elem.Size()))
		}
	}
}
