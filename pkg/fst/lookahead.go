package fst

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"sort"
)

// ILabelLookAheadFstType is the encoding family name of
// ILabelLookAheadFst.
const ILabelLookAheadFstType = "ilabel_lookahead"

const lookAheadFileVersion int32 = 1

// ILabelLookAheadFst is the lookahead-indexed encoding: an immutable
// automaton that keeps, per state, a permutation of its arcs sorted by
// input label. Arc iteration still follows stored order; LookupArcs
// resolves an input label in O(log n) through the index. Matchers use
// it to decide label reachability without scanning whole arc lists.
type ILabelLookAheadFst struct {
	arcType string
	start   StateID
	states  []lookAheadState
	props   PropertyMask
	isyms   *SymbolTable
	osyms   *SymbolTable
}

type lookAheadState struct {
	final Weight
	arcs  []Arc
	// byILabel[i] indexes arcs; arcs[byILabel[0..]] is sorted by input
	// label, ties keeping stored order.
	byILabel []int32
}

func buildILabelIndex(arcs []Arc) []int32 {
	idx := make([]int32, len(arcs))
	for i := range idx {
		idx[i] = int32(i)
	}
	slices.SortStableFunc(idx, func(a, b int32) int {
		return int(arcs[a].ILabel) - int(arcs[b].ILabel)
	})
	return idx
}

func (l *ILabelLookAheadFst) validState(s StateID) bool {
	return s >= 0 && int(s) < len(l.states)
}

func (l *ILabelLookAheadFst) Start() StateID { return l.start }

func (l *ILabelLookAheadFst) Final(s StateID) Weight {
	if !l.validState(s) {
		return nil
	}
	return l.states[s].final
}

func (l *ILabelLookAheadFst) NumStates() int64 { return int64(len(l.states)) }

func (l *ILabelLookAheadFst) NumArcs(s StateID) int64 {
	if !l.validState(s) {
		return 0
	}
	return int64(len(l.states[s].arcs))
}

func (l *ILabelLookAheadFst) Arcs(s StateID) iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		if !l.validState(s) {
			return
		}
		for _, a := range l.states[s].arcs {
			if !yield(a) {
				return
			}
		}
	}
}

// LookupArcs iterates, in stored order, the arcs of s whose input
// label equals label.
func (l *ILabelLookAheadFst) LookupArcs(s StateID, label Label) iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		if !l.validState(s) {
			return
		}
		st := &l.states[s]
		lo := sort.Search(len(st.byILabel), func(i int) bool {
			return st.arcs[st.byILabel[i]].ILabel >= label
		})
		for i := lo; i < len(st.byILabel) && st.arcs[st.byILabel[i]].ILabel == label; i++ {
			if !yield(st.arcs[st.byILabel[i]]) {
				return
			}
		}
	}
}

// LookAhead reports whether s has at least one arc on label.
func (l *ILabelLookAheadFst) LookAhead(s StateID, label Label) bool {
	for range l.LookupArcs(s, label) {
		return true
	}
	return false
}

func (l *ILabelLookAheadFst) Properties(mask PropertyMask, compute bool) PropertyMask {
	if compute || ProcessConfig().VerifyProperties {
		l.props = computeProperties(l, mask, l.props)
	}
	return l.props & mask
}

func (l *ILabelLookAheadFst) FstType() string { return ILabelLookAheadFstType }

func (l *ILabelLookAheadFst) ArcType() string { return l.arcType }

func (l *ILabelLookAheadFst) InputSymbols() *SymbolTable  { return l.isyms }
func (l *ILabelLookAheadFst) OutputSymbols() *SymbolTable { return l.osyms }

// WriteTo serializes with the vector body layout; the label index is
// cheap to rebuild and never persisted.
func (l *ILabelLookAheadFst) WriteTo(w io.Writer) error {
	wc, err := lookupWeight(l.arcType)
	if err != nil {
		return err
	}
	var total int64
	for _, st := range l.states {
		total += int64(len(st.arcs))
	}
	hdr := Header{
		FstType:    ILabelLookAheadFstType,
		ArcType:    l.arcType,
		Version:    lookAheadFileVersion,
		Flags:      symbolFlags(l),
		Properties: l.props.structuralMask(),
		Start:      int64(l.start),
		NumStates:  l.NumStates(),
		NumArcs:    total,
	}
	if err := hdr.Write(w, ILabelLookAheadFstType); err != nil {
		return err
	}
	if err := writeSymbolSections(w, l); err != nil {
		return err
	}
	wbuf := make([]byte, wc.size)
	for _, st := range l.states {
		if err := writeFinal(w, st.final, wbuf); err != nil {
			return err
		}
		if err := writeInt64(w, int64(len(st.arcs))); err != nil {
			return err
		}
		for _, a := range st.arcs {
			if err := writeArc(w, a, wbuf); err != nil {
				return err
			}
		}
	}
	return nil
}

func readILabelLookAheadFst(r io.Reader, opts *ReadOptions) (Fst, error) {
	hdr := opts.Header
	wc, err := lookupWeight(hdr.ArcType)
	if err != nil {
		return nil, err
	}
	isyms, osyms, err := readSymbolSections(r, hdr, opts)
	if err != nil {
		return nil, err
	}

	l := &ILabelLookAheadFst{
		arcType: hdr.ArcType,
		start:   StateID(hdr.Start),
		states:  make([]lookAheadState, hdr.NumStates),
		props:   hdr.Properties.structuralMask(),
		isyms:   isyms,
		osyms:   osyms,
	}
	wbuf := make([]byte, wc.size)
	for s := range l.states {
		final, ferr := readFinal(r, wc, wbuf)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, ferr)
		}
		narcs, nerr := readInt64(r)
		if nerr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, nerr)
		}
		if narcs < 0 {
			return nil, fmt.Errorf("%w: %s: negative arc count", ErrReadFailed, opts.Source)
		}
		arcs := make([]Arc, 0, narcs)
		for i := int64(0); i < narcs; i++ {
			a, aerr := readArc(r, wc, wbuf)
			if aerr != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, aerr)
			}
			if a.NextState < 0 || int64(a.NextState) >= hdr.NumStates {
				return nil, fmt.Errorf("%w: %s: arc from state %d targets state %d of %d",
					ErrReadFailed, opts.Source, s, a.NextState, hdr.NumStates)
			}
			arcs = append(arcs, a)
		}
		l.states[s] = lookAheadState{final: final, arcs: arcs, byILabel: buildILabelIndex(arcs)}
	}
	return l, nil
}

// convertToILabelLookAhead copies any automaton and builds the input
// label index per state.
func convertToILabelLookAhead(src Fst) (Fst, error) {
	l := &ILabelLookAheadFst{
		arcType: src.ArcType(),
		start:   src.Start(),
		props:   src.Properties(PropBinaryAll, false).structuralMask(),
		isyms:   src.InputSymbols(),
		osyms:   src.OutputSymbols(),
	}
	n := src.NumStates()
	l.states = make([]lookAheadState, n)
	for s := StateID(0); int64(s) < n; s++ {
		arcs := make([]Arc, 0, src.NumArcs(s))
		for a := range src.Arcs(s) {
			arcs = append(arcs, a)
		}
		l.states[s] = lookAheadState{
			final:    src.Final(s),
			arcs:     arcs,
			byILabel: buildILabelIndex(arcs),
		}
	}
	return l, nil
}

func init() {
	RegisterFstType(ILabelLookAheadFstType, readILabelLookAheadFst, convertToILabelLookAhead)
}
