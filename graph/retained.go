// ABOUTME: Retained sizes from the dominator tree
// ABOUTME: An object retains its own size plus everything it dominates

package graph

// RetainedSizes computes, for every reachable object, the total number of
// bytes that would become garbage if the object were unlinked: its own size
// plus the sizes of all objects it dominates. Unreachable objects are
// absent from the result.
func RetainedSizes(g Graph) map[ObjID]uint64 {
	tree := DominatorTree(Dominators(g))

	sizes := make(map[ObjID]uint64, g.Len())
	g.ForEach(func(obj *Object) {
		sizes[obj.ID] = obj.Size
	})

	retained := make(map[ObjID]uint64, len(sizes))
	var total func(ObjID) uint64
	total = func(id ObjID) uint64 {
		if r, done := retained[id]; done {
			return r
		}
		sum := sizes[id]
		for _, child := range tree[id] {
			sum += total(child)
		}
		retained[id] = sum
		return sum
	}
	for _, root := range tree[SuperRoot] {
		total(root)
	}

	delete(retained, SuperRoot)
	return retained
}
