package fst

import (
	"fmt"
	"io"
	"iter"
)

// VectorFstType is the encoding family name of VectorFst.
const VectorFstType = "vector"

const vectorFileVersion int32 = 1

// VectorFst is the growable, mutable encoding: states own plain arc
// slices. It is the canonical MutableFst and the target every
// algorithm copies into when handed an immutable encoding.
type VectorFst struct {
	arcType string
	start   StateID
	states  []vectorState
	props   PropertyMask
	isyms   *SymbolTable
	osyms   *SymbolTable
}

type vectorState struct {
	final Weight
	arcs  []Arc
}

// NewVectorFst returns an empty mutable automaton over the given arc
// type.
func NewVectorFst(arcType string) *VectorFst {
	return &VectorFst{arcType: arcType, start: NoStateID}
}

func (v *VectorFst) validState(s StateID) bool {
	return s >= 0 && int(s) < len(v.states)
}

// invalidateProps drops every cached structural fact after a mutation.
func (v *VectorFst) invalidateProps() {
	v.props = 0
}

func (v *VectorFst) Start() StateID { return v.start }

func (v *VectorFst) Final(s StateID) Weight {
	if !v.validState(s) {
		return nil
	}
	return v.states[s].final
}

func (v *VectorFst) NumStates() int64 { return int64(len(v.states)) }

func (v *VectorFst) NumArcs(s StateID) int64 {
	if !v.validState(s) {
		return 0
	}
	return int64(len(v.states[s].arcs))
}

func (v *VectorFst) Arcs(s StateID) iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		if !v.validState(s) {
			return
		}
		for _, a := range v.states[s].arcs {
			if !yield(a) {
				return
			}
		}
	}
}

func (v *VectorFst) Properties(mask PropertyMask, compute bool) PropertyMask {
	if compute || ProcessConfig().VerifyProperties {
		v.props = computeProperties(v, mask, v.props)
	}
	return (v.props | PropMutable) & mask
}

func (v *VectorFst) FstType() string { return VectorFstType }

func (v *VectorFst) ArcType() string { return v.arcType }

func (v *VectorFst) InputSymbols() *SymbolTable  { return v.isyms }
func (v *VectorFst) OutputSymbols() *SymbolTable { return v.osyms }

func (v *VectorFst) SetInputSymbols(t *SymbolTable)  { v.isyms = t }
func (v *VectorFst) SetOutputSymbols(t *SymbolTable) { v.osyms = t }

func (v *VectorFst) SetProperties(props, mask PropertyMask) {
	v.props = (v.props &^ mask) | (props & mask)
}

func (v *VectorFst) SetStart(s StateID) error {
	if s != NoStateID && !v.validState(s) {
		return fmt.Errorf("%w: start %d", ErrNoSuchState, s)
	}
	v.start = s
	return nil
}

func (v *VectorFst) AddState() StateID {
	v.states = append(v.states, vectorState{})
	v.invalidateProps()
	return StateID(len(v.states) - 1)
}

// ReserveStates grows the state table so ids [0, n) exist.
func (v *VectorFst) ReserveStates(n int64) {
	for int64(len(v.states)) < n {
		v.states = append(v.states, vectorState{})
	}
	v.invalidateProps()
}

func (v *VectorFst) AddArc(s StateID, arc Arc) error {
	if !v.validState(s) {
		return fmt.Errorf("%w: source %d", ErrNoSuchState, s)
	}
	if !v.validState(arc.NextState) {
		return fmt.Errorf("%w: destination %d", ErrNoSuchState, arc.NextState)
	}
	if arc.Weight == nil {
		return fmt.Errorf("%w: arc weight must be set", ErrTypeMismatch)
	}
	if arc.Weight.Type() != v.arcType {
		return fmt.Errorf("%w: arc weight %q on %q automaton",
			ErrTypeMismatch, arc.Weight.Type(), v.arcType)
	}
	v.states[s].arcs = append(v.states[s].arcs, arc)
	v.invalidateProps()
	return nil
}

func (v *VectorFst) SetFinal(s StateID, w Weight) error {
	if !v.validState(s) {
		return fmt.Errorf("%w: state %d", ErrNoSuchState, s)
	}
	if w != nil && w.Type() != v.arcType {
		return fmt.Errorf("%w: final weight %q on %q automaton",
			ErrTypeMismatch, w.Type(), v.arcType)
	}
	v.states[s].final = w
	v.invalidateProps()
	return nil
}

// StateSort renumbers states so state s becomes state order[s].
func (v *VectorFst) StateSort(order []StateID) error {
	n := len(v.states)
	if len(order) != n {
		return fmt.Errorf("%w: %d entries for %d states", ErrBadStateOrder, len(order), n)
	}
	seen := make([]bool, n)
	for _, o := range order {
		if o < 0 || int(o) >= n || seen[o] {
			return ErrBadStateOrder
		}
		seen[o] = true
	}

	sorted := make([]vectorState, n)
	for s, st := range v.states {
		arcs := make([]Arc, len(st.arcs))
		for i, a := range st.arcs {
			a.NextState = order[a.NextState]
			arcs[i] = a
		}
		sorted[order[s]] = vectorState{final: st.final, arcs: arcs}
	}
	v.states = sorted
	if v.start != NoStateID {
		v.start = order[v.start]
	}
	v.invalidateProps()
	return nil
}

func (v *VectorFst) WriteTo(w io.Writer) error {
	wc, err := lookupWeight(v.arcType)
	if err != nil {
		return err
	}
	hdr := Header{
		FstType:    VectorFstType,
		ArcType:    v.arcType,
		Version:    vectorFileVersion,
		Flags:      symbolFlags(v),
		Properties: v.props.structuralMask(),
		Start:      int64(v.start),
		NumStates:  v.NumStates(),
		NumArcs:    CountArcs(v),
	}
	if err := hdr.Write(w, VectorFstType); err != nil {
		return err
	}
	if err := writeSymbolSections(w, v); err != nil {
		return err
	}

	wbuf := make([]byte, wc.size)
	for _, st := range v.states {
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

func writeFinal(w io.Writer, final Weight, wbuf []byte) error {
	if final == nil {
		return writeByte(w, 0)
	}
	if err := writeByte(w, 1); err != nil {
		return err
	}
	buf := wbuf[:final.ByteLen()]
	final.Encode(buf)
	_, err := w.Write(buf)
	return err
}

func writeArc(w io.Writer, a Arc, wbuf []byte) error {
	if err := writeInt32(w, int32(a.ILabel)); err != nil {
		return err
	}
	if err := writeInt32(w, int32(a.OLabel)); err != nil {
		return err
	}
	buf := wbuf[:a.Weight.ByteLen()]
	a.Weight.Encode(buf)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return writeInt32(w, int32(a.NextState))
}

// readVectorFst materializes the body following an already-parsed
// header.
func readVectorFst(r io.Reader, opts *ReadOptions) (Fst, error) {
	hdr := opts.Header
	wc, err := lookupWeight(hdr.ArcType)
	if err != nil {
		return nil, err
	}
	isyms, osyms, err := readSymbolSections(r, hdr, opts)
	if err != nil {
		return nil, err
	}

	v := NewVectorFst(hdr.ArcType)
	v.isyms = isyms
	v.osyms = osyms
	v.states = make([]vectorState, hdr.NumStates)
	v.start = StateID(hdr.Start)
	v.props = hdr.Properties.structuralMask()

	wbuf := make([]byte, wc.size)
	for s := range v.states {
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
		v.states[s] = vectorState{final: final, arcs: arcs}
	}
	return v, nil
}

func readFinal(r io.Reader, wc weightCodec, wbuf []byte) (Weight, error) {
	present, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	if _, err := io.ReadFull(r, wbuf[:wc.size]); err != nil {
		return nil, err
	}
	return wc.decode(wbuf[:wc.size]), nil
}

func readArc(r io.Reader, wc weightCodec, wbuf []byte) (Arc, error) {
	ilabel, err := readInt32(r)
	if err != nil {
		return Arc{}, err
	}
	olabel, err := readInt32(r)
	if err != nil {
		return Arc{}, err
	}
	if _, err := io.ReadFull(r, wbuf[:wc.size]); err != nil {
		return Arc{}, err
	}
	weight := wc.decode(wbuf[:wc.size])
	next, err := readInt32(r)
	if err != nil {
		return Arc{}, err
	}
	return Arc{
		ILabel:    Label(ilabel),
		OLabel:    Label(olabel),
		Weight:    weight,
		NextState: StateID(next),
	}, nil
}

func convertToVector(src Fst) (Fst, error) {
	v := NewVectorFst(src.ArcType())
	if err := copyInto(v, src); err != nil {
		return nil, err
	}
	v.props |= src.Properties(PropBinaryAll, false).structuralMask()
	return v, nil
}

func init() {
	RegisterFstType(VectorFstType, readVectorFst, convertToVector)
}
