package fst

// StateID identifies a state within an automaton's dense, zero-based
// id space.
type StateID int32

// Label is an arc input or output label. Label 0 is reserved for
// epsilon (the empty string).
type Label int32

const (
	// NoStateID is the sentinel for "no state", e.g. a missing start state.
	NoStateID StateID = -1

	// EpsilonLabel is the reserved empty-string label.
	EpsilonLabel Label = 0
)

// Arc is a transition: input label, output label, weight and destination
// state. Arc order within a state is significant and preserved by every
// encoding and algorithm in this package.
type Arc struct {
	ILabel    Label
	OLabel    Label
	Weight    Weight
	NextState StateID
}

// Equal reports whether two arcs have the same labels, destination and
// weight.
func (a Arc) Equal(b Arc) bool {
	if a.ILabel != b.ILabel || a.OLabel != b.OLabel || a.NextState != b.NextState {
		return false
	}
	if a.Weight == nil || b.Weight == nil {
		return a.Weight == b.Weight
	}
	return a.Weight.Equal(b.Weight)
}
