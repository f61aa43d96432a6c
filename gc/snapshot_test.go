// ABOUTME: Tests for live-heap snapshots and the analyses that run on them
// ABOUTME: Validates object capture, roots, paths-to-roots and retained sizes

package gc

import (
	"testing"

	"github.com/prateek/sweepgc/graph"
)

// snapNode is the object shape used by snapshot tests
type snapNode struct {
	next Ptr[snapNode]
}

func TestSnapshotCapturesLiveGraph(t *testing.T) {
	a := Make[snapNode](nil)
	b := Make[snapNode](nil)
	a.Get().next.SetPtr(b)
	b.Drop()

	g := Snapshot()

	if got := g.Len(); got != 2 {
		t.Fatalf("Expected 2 snapshot objects, got %d", got)
	}

	aID := objID(a.target)
	bID := objID(a.Get().next.target)
	obj := g.Object(aID)
	if obj == nil {
		t.Fatal("Expected the rooted object in the snapshot")
	}
	if len(obj.Refs) != 1 || obj.Refs[0] != bID {
		t.Errorf("Expected the rooted object to reference its child, got %v", obj.Refs)
	}
	if obj.TypeName != "gc.snapNode" {
		t.Errorf("Expected type name gc.snapNode, got %q", obj.TypeName)
	}

	roots := g.Roots()
	if len(roots.IDs) != 1 || roots.IDs[0] != aID {
		t.Errorf("Expected exactly the rooted object among the snapshot roots, got %v", roots.IDs)
	}

	a.Drop()
	drainHeap(t)
}

func TestSnapshotAnalyses(t *testing.T) {
	// Two rooted objects share one child: a -> shared <- b.
	a := Make[snapNode](nil)
	b := Make[snapNode](nil)
	shared := Make[snapNode](nil)
	a.Get().next.SetPtr(shared)
	b.Get().next.SetPtr(shared)
	shared.Drop()

	g := Snapshot()

	aID := objID(a.target)
	bID := objID(b.target)
	sharedID := objID(a.Get().next.target)

	if got := len(g.Roots().IDs); got != 2 {
		t.Fatalf("Expected 2 snapshot roots, got %d", got)
	}

	reach := graph.Reachable(g)
	for _, id := range []graph.ObjID{aID, bID, sharedID} {
		if !reach[id] {
			t.Errorf("Expected object %#x to be reachable", uint64(id))
		}
	}

	// The shared child has one path back through each parent.
	paths := graph.PathsToRoots(g, sharedID, 10)
	if len(paths) != 2 {
		t.Fatalf("Expected 2 paths to roots, got %d", len(paths))
	}
	for _, p := range paths {
		if len(p.IDs) != 2 || p.IDs[0] != sharedID {
			t.Errorf("Expected a two-step path starting at the shared child, got %v", p.IDs)
		}
	}

	// Neither parent dominates the shared child: its sole-owner chain goes
	// straight to the super-root.
	idom := graph.Dominators(g)
	ownerChain := graph.DominatorPath(idom, sharedID)
	if len(ownerChain) != 2 || ownerChain[1] != graph.SuperRoot {
		t.Errorf("Expected the shared child to be owned only by the super-root, got chain %v", ownerChain)
	}
	if graph.Dominates(idom, aID, sharedID) {
		t.Error("Expected neither parent to dominate the shared child")
	}

	// Each parent therefore retains only itself, and so does the child.
	retained := graph.RetainedSizes(g)
	size := uint64(TypeInfoOf[snapNode]().Size())
	for _, id := range []graph.ObjID{aID, bID, sharedID} {
		if got := retained[id]; got != size {
			t.Errorf("Expected object %#x to retain exactly %d bytes, got %d", uint64(id), size, got)
		}
	}

	a.Drop()
	b.Drop()
	drainHeap(t)
}

func TestSnapshotSeesContainerEdges(t *testing.T) {
	v := NewVec[snapNode]()
	h := Make[snapNode](nil)
	v.PushBack(h)

	g := Snapshot()
	hID := objID(h.target)
	roots := g.Roots()
	if len(roots.IDs) != 1 || roots.IDs[0] != hID {
		t.Errorf("Expected the container item among the snapshot roots, got %v", roots.IDs)
	}

	h.Drop()
	v.Drop()
	drainHeap(t)
}

func TestSnapshotOfEmptyHeap(t *testing.T) {
	drainHeap(t)
	g := Snapshot()
	if got := g.Len(); got != 0 {
		t.Errorf("Expected an empty snapshot, got %d objects", got)
	}
	if got := len(g.Roots().IDs); got != 0 {
		t.Errorf("Expected no snapshot roots, got %d", got)
	}
}
