package fst

// Topological ordering of automaton states.
//
// Ordering runs a depth-first traversal rooted at every state, not
// just the declared start, so unreachable states receive order numbers
// too. Three-color marking finds back edges: an arc into an on-stack
// state is a cycle, self-loops included.

const (
	dfsWhite uint8 = iota // unvisited
	dfsGrey               // on stack
	dfsBlack              // finished
)

// dfsOrder computes a topological order of f's states, or reports a
// cycle. On success order[s] is the position of state s: every arc
// points from a lower position to a higher one (reverse DFS finish
// order). The traversal is iterative so state count, not recursion
// depth, bounds memory.
func dfsOrder(f Fst) (order []StateID, acyclic bool) {
	n := f.NumStates()
	if n == 0 {
		return nil, true
	}

	type frame struct {
		s    StateID
		arcs []Arc
		next int
	}
	color := make([]uint8, n)
	finish := make([]StateID, 0, n)
	var stack []frame

	push := func(s StateID) {
		color[s] = dfsGrey
		arcs := make([]Arc, 0, f.NumArcs(s))
		for a := range f.Arcs(s) {
			arcs = append(arcs, a)
		}
		stack = append(stack, frame{s: s, arcs: arcs})
	}

	for root := StateID(0); int64(root) < n; root++ {
		if color[root] != dfsWhite {
			continue
		}
		push(root)
		for len(stack) > 0 {
			fr := &stack[len(stack)-1]
			if fr.next == len(fr.arcs) {
				color[fr.s] = dfsBlack
				finish = append(finish, fr.s)
				stack = stack[:len(stack)-1]
				continue
			}
			dest := fr.arcs[fr.next].NextState
			fr.next++
			switch color[dest] {
			case dfsWhite:
				push(dest)
			case dfsGrey:
				// Back edge.
				return nil, false
			}
		}
	}

	order = make([]StateID, n)
	for i, s := range finish {
		// The last state to finish comes first in the order.
		order[s] = StateID(int64(len(finish)-1) - int64(i))
	}
	return order, true
}

// TopSort reorders m's states so every arc points from a lower state
// id to a higher one, returning true. A cyclic automaton is left
// completely unchanged and TopSort returns false; callers decide
// whether that is worth more than a warning. An empty automaton is
// trivially acyclic.
func TopSort(m MutableFst) bool {
	order, acyclic := dfsOrder(m)
	if !acyclic {
		// Not even the property cache is touched: a failed sort must
		// leave the automaton byte-identical on re-serialization.
		return false
	}
	pairMask := PropAcyclic | PropCyclic | PropTopSorted | PropNotTopSorted
	if len(order) > 0 {
		// order is a permutation by construction.
		_ = m.StateSort(order)
	}
	m.SetProperties(PropAcyclic|PropTopSorted, pairMask)
	return true
}

// TopSortFst topologically sorts any automaton and returns the handle
// to use going forward. A mutable input is sorted in place and
// returned as-is; anything else is first copied into a vector
// encoding, in which case the returned handle supersedes f and the
// caller should release f (for a mapped encoding, by closing it).
// The boolean mirrors TopSort: false means a cycle was found and the
// automaton, whichever handle now represents it, is unchanged.
func TopSortFst(f Fst) (MutableFst, bool, error) {
	m, ok := f.(MutableFst)
	if !ok || f.Properties(PropMutable, false) == 0 {
		converted, err := Convert(f, VectorFstType)
		if err != nil {
			return nil, false, err
		}
		m = converted.(MutableFst)
	}
	return m, TopSort(m), nil
}
