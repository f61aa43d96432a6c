// ABOUTME: Queries over the immediate-dominator map
// ABOUTME: Depths, ownership chains and dominance checks for diagnostics

package graph

// DominatorDepths computes every reachable object's depth in the dominator
// tree by walking immediate-dominator chains with memoization. The
// super-root has depth 0; objects it directly dominates have depth 1.
func DominatorDepths(idom map[ObjID]ObjID) map[ObjID]int {
	depths := make(map[ObjID]int, len(idom)+1)
	depths[SuperRoot] = 0

	var depthOf func(ObjID) int
	depthOf = func(id ObjID) int {
		if d, ok := depths[id]; ok {
			return d
		}
		d := depthOf(idom[id]) + 1
		depths[id] = d
		return d
	}
	for id := range idom {
		depthOf(id)
	}
	return depths
}

// DominatorPath returns the chain of sole owners of an object: the object
// itself, then each immediate dominator up to and including the super-root.
// The object would become garbage if any other element of the chain
// (super-root aside) were unlinked. Returns nil for an object absent
// from the dominator map.
func DominatorPath(idom map[ObjID]ObjID, node ObjID) []ObjID {
	if _, ok := idom[node]; !ok && node != SuperRoot {
		return nil
	}
	path := []ObjID{node}
	for node != SuperRoot {
		node = idom[node]
		path = append(path, node)
	}
	return path
}

// Dominates reports whether dominator lies on node's dominator chain.
// Every object dominates itself, and the super-root dominates every
// reachable object.
func Dominates(idom map[ObjID]ObjID, dominator, node ObjID) bool {
	for cur := node; ; {
		if cur == dominator {
			return true
		}
		if cur == SuperRoot {
			return false
		}
		dom, ok := idom[cur]
		if !ok {
			return false
		}
		cur = dom
	}
}
