// ABOUTME: Referrer index for backwards traversal over a snapshot
// ABOUTME: Answers "who holds a handle to this object" in O(1)

package graph

// Referrers is an inverted edge index: for every object, the objects that
// reference it. Built once per snapshot and queried during backwards
// traversals.
type Referrers struct {
	edges map[ObjID][]ObjID
}

// BuildReferrers inverts the snapshot's reference edges. The index is built
// in two passes so each referrer list is allocated exactly once.
func BuildReferrers(g Graph) Referrers {
	counts := make(map[ObjID]int)
	g.ForEach(func(obj *Object) {
		for _, target := range obj.Refs {
			counts[target]++
		}
	})

	edges := make(map[ObjID][]ObjID, len(counts))
	g.ForEach(func(obj *Object) {
		for _, target := range obj.Refs {
			if edges[target] == nil {
				edges[target] = make([]ObjID, 0, counts[target])
			}
			edges[target] = append(edges[target], obj.ID)
		}
	})
	return Referrers{edges: edges}
}

// Of returns the objects referencing id, in snapshot iteration order.
func (r Referrers) Of(id ObjID) []ObjID {
	return r.edges[id]
}
