// ABOUTME: Tests for handles over embedded (base) structs
// ABOUTME: First-embedded upcasts bind; non-first embedded bases are rejected

package gc

import (
	"testing"
)

// parent plays the base-class role
type parent struct {
	parentRef Ptr[parent]
}

// child embeds parent first, so *parent upcasts share the object address
type child struct {
	parent
	childRef Ptr[child]
}

// sideBase is a second base that never sits at the start of the object
type sideBase struct {
	sideRef Ptr[sideBase]
}

// multiChild embeds two bases; sideBase starts at a non-zero offset
type multiChild struct {
	parent
	sideBase
}

func TestUpcastToFirstEmbeddedBase(t *testing.T) {
	before := len(RootSet().Handles)

	c := Make[child](nil)
	p := NewPtr[parent]()
	p.Set(&c.Get().parent) // upcast: same address as the child object

	if got := len(RootSet().Handles); got != before+2 {
		t.Errorf("Expected 2 root handles (child + upcast), got %d new", got-before)
	}
	if p.target != c.target {
		t.Error("Expected the upcast handle to bind the child's allocation")
	}

	p.Drop()
	c.Drop()
	if got := Collect(); got != 1 {
		t.Errorf("Expected 1 object freed, got %d", got)
	}
	if got := AliveAllocationCount(); got != 0 {
		t.Errorf("Expected 0 alive allocations, got %d", got)
	}
}

func TestOffsetCountsAcrossHierarchy(t *testing.T) {
	p := Make[parent](nil)
	c := Make[child](nil)
	defer func() {
		c.Drop()
		p.Drop()
		drainHeap(t)
	}()

	if got := len(TypeInfoOf[parent]().HandleFieldOffsets()); got != 1 {
		t.Errorf("Expected 1 handle offset on parent, got %d", got)
	}
	if got := len(TypeInfoOf[child]().HandleFieldOffsets()); got != 2 {
		t.Errorf("Expected 2 handle offsets on child, got %d", got)
	}
}

func TestNonFirstEmbeddedBaseRejected(t *testing.T) {
	m := Make[multiChild](nil)

	// The sideBase subobject does not start at the allocation, so there is
	// no header at its address minus the header size.
	s := NewPtr[sideBase]()
	expectCritical(t, func() {
		s.Set(&m.Get().sideBase)
	})
	if !s.IsNil() {
		t.Error("Expected the handle to stay empty after the rejected downcast")
	}

	s.Drop()
	m.Drop()
	drainHeap(t)
}
