// ABOUTME: Immediate dominators of a snapshot via the Cooper-Harvey-Kennedy algorithm
// ABOUTME: Iterates to a fixed point over reverse post-order, no link-eval forest

package graph

// Dominators computes the immediate dominator of every reachable object.
// The synthetic super-root dominates all roots; the returned map assigns
// each reachable object (roots included) its immediate dominator, with
// roots mapping to SuperRoot. Unreachable objects are absent.
//
// Uses the iterative algorithm of Cooper, Harvey and Kennedy ("A Simple,
// Fast Dominance Algorithm"): intersect dominator chains over reverse
// post-order until nothing changes.
func Dominators(g Graph) map[ObjID]ObjID {
	// Successor edges, with the super-root fanning out to the roots.
	succ := make(map[ObjID][]ObjID, g.Len()+1)
	succ[SuperRoot] = append([]ObjID(nil), g.Roots().IDs...)
	g.ForEach(func(obj *Object) {
		succ[obj.ID] = obj.Refs
	})

	// Post-order DFS from the super-root; only reachable nodes matter.
	seen := map[ObjID]bool{SuperRoot: true}
	post := make([]ObjID, 0, len(succ))
	var dfs func(ObjID)
	dfs = func(v ObjID) {
		for _, w := range succ[v] {
			if !seen[w] {
				seen[w] = true
				dfs(w)
			}
		}
		post = append(post, v)
	}
	dfs(SuperRoot)

	// Reverse post-order sequence and numbering.
	rpo := make([]ObjID, len(post))
	rpoNum := make(map[ObjID]int, len(post))
	for i, v := range post {
		idx := len(post) - 1 - i
		rpo[idx] = v
		rpoNum[v] = idx
	}

	// Predecessor lists restricted to reachable nodes.
	preds := make(map[ObjID][]ObjID, len(post))
	for v, targets := range succ {
		if !seen[v] {
			continue
		}
		for _, w := range targets {
			if seen[w] {
				preds[w] = append(preds[w], v)
			}
		}
	}

	idom := make(map[ObjID]ObjID, len(post))
	idom[SuperRoot] = SuperRoot

	// Walk two dominator chains up to their common ancestor.
	intersect := func(a, b ObjID) ObjID {
		for a != b {
			for rpoNum[a] > rpoNum[b] {
				a = idom[a]
			}
			for rpoNum[b] > rpoNum[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, v := range rpo {
			if v == SuperRoot {
				continue
			}
			var cand ObjID
			have := false
			for _, p := range preds[v] {
				if _, processed := idom[p]; !processed {
					continue
				}
				if !have {
					cand, have = p, true
				} else {
					cand = intersect(cand, p)
				}
			}
			if !have {
				continue
			}
			if cur, ok := idom[v]; !ok || cur != cand {
				idom[v] = cand
				changed = true
			}
		}
	}

	delete(idom, SuperRoot)
	return idom
}

// DominatorTree inverts an immediate-dominator map into child lists.
// The tree is rooted at SuperRoot.
func DominatorTree(idom map[ObjID]ObjID) map[ObjID][]ObjID {
	tree := make(map[ObjID][]ObjID, len(idom)+1)
	tree[SuperRoot] = nil
	for node, dom := range idom {
		tree[dom] = append(tree[dom], node)
	}
	return tree
}
