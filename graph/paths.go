// ABOUTME: BFS over referrer edges answering "why is this object alive"
// ABOUTME: Walks parent-chain hops instead of copying a path per queue entry

package graph

// Path is one chain of references from a target object back to a root.
// IDs[0] is the target, the last element is a root-referenced object.
type Path struct {
	IDs []ObjID
}

// hop is one step of an in-progress backwards walk. Hops form immutable
// chains back to the target, so queue entries share their common prefix
// instead of each carrying a copy of the whole path.
type hop struct {
	id   ObjID
	prev *hop
}

// onChain reports whether id already occurs on the walk leading to h
func (h *hop) onChain(id ObjID) bool {
	for cur := h; cur != nil; cur = cur.prev {
		if cur.id == id {
			return true
		}
	}
	return false
}

// materialize turns a finished walk into a Path. The chain runs from the
// last-reached root back to the target, so filling the slice from the end
// yields target-first order directly.
func (h *hop) materialize() Path {
	n := 0
	for cur := h; cur != nil; cur = cur.prev {
		n++
	}
	ids := make([]ObjID, n)
	for cur := h; cur != nil; cur = cur.prev {
		n--
		ids[n] = cur.id
	}
	return Path{IDs: ids}
}

// PathsToRoots finds up to maxPaths cycle-free paths from an object to the
// roots. The search runs breadth-first over referrer edges, so shorter
// paths are reported first.
func PathsToRoots(g Graph, from ObjID, maxPaths int) []Path {
	if maxPaths <= 0 || g.Object(from) == nil {
		return nil
	}

	rootSet := make(map[ObjID]bool, len(g.Roots().IDs))
	for _, id := range g.Roots().IDs {
		rootSet[id] = true
	}
	if rootSet[from] {
		return []Path{{IDs: []ObjID{from}}}
	}

	referrers := BuildReferrers(g)

	var found []Path
	frontier := []*hop{{id: from}}
	for len(frontier) > 0 && len(found) < maxPaths {
		var next []*hop
		for _, cur := range frontier {
			for _, ref := range referrers.Of(cur.id) {
				if cur.onChain(ref) {
					continue
				}
				step := &hop{id: ref, prev: cur}
				if !rootSet[ref] {
					next = append(next, step)
					continue
				}
				found = append(found, step.materialize())
				if len(found) >= maxPaths {
					return found
				}
			}
		}
		frontier = next
	}
	return found
}
