package fst

// PropertyMask is a bitset of cached structural facts about an
// automaton. Each binary predicate owns a (true, false) bit pair so
// that unknown, known-true and known-false are all representable in
// the single uint64 the header persists.
type PropertyMask uint64

const (
	// PropAcceptor: every arc has ILabel == OLabel.
	PropAcceptor PropertyMask = 1 << iota
	PropNotAcceptor

	// PropIDeterministic: no state has two arcs sharing an input label.
	PropIDeterministic
	PropNonIDeterministic

	// PropNoEpsilons: no arc has both labels epsilon.
	PropNoEpsilons
	PropEpsilons

	// PropAcyclic: the arc graph has no directed cycle.
	PropAcyclic
	PropCyclic

	// PropTopSorted: every arc goes from a lower state id to a higher one.
	PropTopSorted
	PropNotTopSorted

	// PropMutable is a capability bit, always known: the encoding
	// supports in-place mutation.
	PropMutable
)

// PropBinaryAll covers every two-bit predicate pair.
const PropBinaryAll = PropAcceptor | PropNotAcceptor |
	PropIDeterministic | PropNonIDeterministic |
	PropNoEpsilons | PropEpsilons |
	PropAcyclic | PropCyclic |
	PropTopSorted | PropNotTopSorted

// PropAll covers every property bit this package defines.
const PropAll = PropBinaryAll | PropMutable

// Property names one binary predicate: the bit asserting it and the bit
// refuting it.
type Property struct {
	True  PropertyMask
	False PropertyMask
	Name  string
}

var (
	Acceptor       = Property{PropAcceptor, PropNotAcceptor, "acceptor"}
	IDeterministic = Property{PropIDeterministic, PropNonIDeterministic, "input-deterministic"}
	NoEpsilons     = Property{PropNoEpsilons, PropEpsilons, "no-epsilons"}
	Acyclic        = Property{PropAcyclic, PropCyclic, "acyclic"}
	TopSorted      = Property{PropTopSorted, PropNotTopSorted, "top-sorted"}
)

// Known reports whether the predicate has been decided either way.
func (m PropertyMask) Known(p Property) bool {
	return m&(p.True|p.False) != 0
}

// Value reports the predicate's cached truth value. Only meaningful
// when Known returns true.
func (m PropertyMask) Value(p Property) bool {
	return m&p.True != 0
}

// SetKnownTrue marks the predicate known and true.
func (m *PropertyMask) SetKnownTrue(p Property) {
	*m = (*m &^ p.False) | p.True
}

// SetKnownFalse marks the predicate known and false.
func (m *PropertyMask) SetKnownFalse(p Property) {
	*m = (*m &^ p.True) | p.False
}

// setBool is SetKnownTrue or SetKnownFalse depending on v.
func (m *PropertyMask) setBool(p Property, v bool) {
	if v {
		m.SetKnownTrue(p)
	} else {
		m.SetKnownFalse(p)
	}
}

// structuralMask strips encoding capability bits, leaving only facts
// that survive a change of physical representation.
func (m PropertyMask) structuralMask() PropertyMask {
	return m & PropBinaryAll
}

// Verify returns the predicate's value for f, computing it from the
// automaton's structure if it is not already known. The computed value
// is cached in the automaton's property mask.
func Verify(f Fst, p Property) bool {
	return f.Properties(p.True|p.False, true).Value(p)
}

// computeProperties evaluates every unknown predicate selected by mask
// and returns the updated property set. Acyclicity and top-sortedness
// are certified by the same DFS the topological sort uses; the
// remaining predicates are single-pass arc scans.
func computeProperties(f Fst, mask PropertyMask, props PropertyMask) PropertyMask {
	scan := false
	for _, p := range []Property{Acceptor, IDeterministic, NoEpsilons, TopSorted} {
		if mask&(p.True|p.False) != 0 && !props.Known(p) {
			scan = true
		}
	}
	if scan {
		props = scanProperties(f, props)
	}
	if mask&(PropAcyclic|PropCyclic) != 0 && !props.Known(Acyclic) {
		_, acyclic := dfsOrder(f)
		props.setBool(Acyclic, acyclic)
		if !acyclic {
			// A cyclic automaton cannot be topologically ordered.
			props.SetKnownFalse(TopSorted)
		}
	}
	return props
}

// scanProperties decides the single-pass predicates in one walk over
// all arcs.
func scanProperties(f Fst, props PropertyMask) PropertyMask {
	acceptor := true
	deterministic := true
	noEps := true
	sorted := true

	n := StateID(f.NumStates())
	for s := StateID(0); s < n; s++ {
		seen := make(map[Label]struct{})
		for arc := range f.Arcs(s) {
			if arc.ILabel != arc.OLabel {
				acceptor = false
			}
			if arc.ILabel == EpsilonLabel && arc.OLabel == EpsilonLabel {
				noEps = false
			}
			if _, dup := seen[arc.ILabel]; dup {
				deterministic = false
			}
			seen[arc.ILabel] = struct{}{}
			if arc.NextState <= s {
				sorted = false
			}
		}
	}

	props.setBool(Acceptor, acceptor)
	props.setBool(IDeterministic, deterministic)
	props.setBool(NoEpsilons, noEps)
	props.setBool(TopSorted, sorted)
	if sorted && n > 0 {
		// Strict low-to-high arcs rule out cycles as a byproduct.
		props.SetKnownTrue(Acyclic)
	}
	return props
}
