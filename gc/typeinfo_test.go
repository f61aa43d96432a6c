// ABOUTME: Tests for per-type records and offset learning
// ABOUTME: Validates P5 offset counts, base-struct embedding and offset freezing

package gc

import (
	"testing"
	"unsafe"
)

// mixedFields has two handle fields and two container fields separated by
// plain data, so learned offsets must skip the data.
type mixedFields struct {
	first  Ptr[mixedFields]
	count  int
	second Ptr[mixedFields]
	items  Vec[mixedFields]
	extra  Vec[mixedFields]
	label  string
}

// layerBase plays the base-class role via struct embedding
type layerBase struct {
	baseRef Ptr[layerBase]
}

// layerDerived embeds layerBase, so its offsets include the base's field
type layerDerived struct {
	layerBase
	ownRef Ptr[layerDerived]
}

func TestTypeInfoSingleton(t *testing.T) {
	if TypeInfoOf[mixedFields]() != TypeInfoOf[mixedFields]() {
		t.Error("Expected one TypeInfo singleton per type")
	}
	if TypeInfoOf[mixedFields]() == TypeInfoOf[layerBase]() {
		t.Error("Expected distinct types to have distinct TypeInfo records")
	}
}

func TestTypeInfoSizeMatchesType(t *testing.T) {
	ti := TypeInfoOf[mixedFields]()
	if ti.Size() != unsafe.Sizeof(mixedFields{}) {
		t.Errorf("Expected size %d, got %d", unsafe.Sizeof(mixedFields{}), ti.Size())
	}
}

func TestOffsetLearningCountsEveryNodeField(t *testing.T) {
	p := Make[mixedFields](nil)
	defer func() {
		p.Drop()
		drainHeap(t)
	}()

	ti := TypeInfoOf[mixedFields]()
	if !ti.FieldsFinalized() {
		t.Fatal("Expected field offsets to be finalized after the first construction")
	}
	if got := len(ti.HandleFieldOffsets()); got != 2 {
		t.Errorf("Expected 2 learned handle offsets, got %d", got)
	}
	if got := len(ti.ContainerFieldOffsets()); got != 2 {
		t.Errorf("Expected 2 learned container offsets, got %d", got)
	}

	// The first handle field sits at the start of the struct.
	if offs := ti.HandleFieldOffsets(); len(offs) > 0 && offs[0] != 0 {
		t.Errorf("Expected the first handle offset to be 0, got %d", offs[0])
	}
	for _, off := range ti.HandleFieldOffsets() {
		if uintptr(off) >= ti.Size() {
			t.Errorf("Handle offset %d escapes the type size %d", off, ti.Size())
		}
	}
}

func TestOffsetLearningIncludesEmbeddedBase(t *testing.T) {
	b := Make[layerBase](nil)
	d := Make[layerDerived](nil)
	defer func() {
		b.Drop()
		d.Drop()
		drainHeap(t)
	}()

	if got := len(TypeInfoOf[layerBase]().HandleFieldOffsets()); got != 1 {
		t.Errorf("Expected 1 handle offset on the base type, got %d", got)
	}
	if got := len(TypeInfoOf[layerDerived]().HandleFieldOffsets()); got != 2 {
		t.Errorf("Expected 2 handle offsets on the derived type, got %d", got)
	}
}

func TestOffsetsFrozenAfterFirstConstruction(t *testing.T) {
	first := Make[mixedFields](nil)
	before := len(TypeInfoOf[mixedFields]().HandleFieldOffsets())

	second := Make[mixedFields](nil)
	after := len(TypeInfoOf[mixedFields]().HandleFieldOffsets())

	first.Drop()
	second.Drop()
	drainHeap(t)

	if before != after {
		t.Errorf("Expected offsets to stay frozen, got %d then %d", before, after)
	}
}
