package fst

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
)

// CompactFstType is the encoding family name of CompactFst.
const CompactFstType = "compact"

const compactFileVersion int32 = 1

// CompactFst is the compacted immutable encoding: all states and arcs
// live in one varint-packed byte stream. Labels are zigzag varints,
// output labels and destinations are deltas against the input label
// and the source state, so acceptors and topologically local automata
// compress well. Arcs decode on the fly during iteration.
//
// Packed state record:
//
//	final    u8 (1 = final, weight bytes follow)
//	weight   W bytes, only when final
//	num_arcs uvarint
//	arcs     num_arcs of (ilabel varint, olabel-ilabel varint,
//	         weight W bytes, nextstate-source varint)
type CompactFst struct {
	arcType      string
	wc           weightCodec
	start        StateID
	data         []byte
	stateOffsets []int64
	arcCounts    []int64
	props        PropertyMask
	isyms        *SymbolTable
	osyms        *SymbolTable
}

func (c *CompactFst) validState(s StateID) bool {
	return s >= 0 && int(s) < len(c.arcCounts)
}

func (c *CompactFst) Start() StateID { return c.start }

func (c *CompactFst) Final(s StateID) Weight {
	if !c.validState(s) {
		return nil
	}
	off := c.stateOffsets[s]
	if c.data[off] == 0 {
		return nil
	}
	return c.wc.decode(c.data[off+1 : off+1+int64(c.wc.size)])
}

func (c *CompactFst) NumStates() int64 { return int64(len(c.arcCounts)) }

func (c *CompactFst) NumArcs(s StateID) int64 {
	if !c.validState(s) {
		return 0
	}
	return c.arcCounts[s]
}

func (c *CompactFst) Arcs(s StateID) iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		if !c.validState(s) {
			return
		}
		off := c.stateOffsets[s]
		if c.data[off] == 1 {
			off += int64(c.wc.size)
		}
		off++
		narcs, n := binary.Uvarint(c.data[off:])
		off += int64(n)
		for i := int64(0); i < int64(narcs); i++ {
			arc, adv := c.decodeArc(off, s)
			off += adv
			if !yield(arc) {
				return
			}
		}
	}
}

func (c *CompactFst) decodeArc(off int64, s StateID) (Arc, int64) {
	start := off
	ilabel, n := binary.Varint(c.data[off:])
	off += int64(n)
	odelta, n := binary.Varint(c.data[off:])
	off += int64(n)
	w := int64(c.wc.size)
	weight := c.wc.decode(c.data[off : off+w])
	off += w
	sdelta, n := binary.Varint(c.data[off:])
	off += int64(n)
	return Arc{
		ILabel:    Label(ilabel),
		OLabel:    Label(ilabel + odelta),
		Weight:    weight,
		NextState: s + StateID(sdelta),
	}, off - start
}

func (c *CompactFst) Properties(mask PropertyMask, compute bool) PropertyMask {
	if compute || ProcessConfig().VerifyProperties {
		c.props = computeProperties(c, mask, c.props)
	}
	return c.props & mask
}

func (c *CompactFst) FstType() string { return CompactFstType }

func (c *CompactFst) ArcType() string { return c.arcType }

func (c *CompactFst) InputSymbols() *SymbolTable  { return c.isyms }
func (c *CompactFst) OutputSymbols() *SymbolTable { return c.osyms }

func (c *CompactFst) WriteTo(w io.Writer) error {
	var total int64
	for _, n := range c.arcCounts {
		total += n
	}
	hdr := Header{
		FstType:    CompactFstType,
		ArcType:    c.arcType,
		Version:    compactFileVersion,
		Flags:      symbolFlags(c),
		Properties: c.props.structuralMask(),
		Start:      int64(c.start),
		NumStates:  c.NumStates(),
		NumArcs:    total,
	}
	if err := hdr.Write(w, CompactFstType); err != nil {
		return err
	}
	if err := writeSymbolSections(w, c); err != nil {
		return err
	}
	if err := writeInt64(w, int64(len(c.data))); err != nil {
		return err
	}
	_, err := w.Write(c.data)
	return err
}

// readCompactFst materializes the body following an already-parsed
// header, rescanning the packed stream to rebuild state offsets.
func readCompactFst(r io.Reader, opts *ReadOptions) (Fst, error) {
	hdr := opts.Header
	wc, err := lookupWeight(hdr.ArcType)
	if err != nil {
		return nil, err
	}
	isyms, osyms, err := readSymbolSections(r, hdr, opts)
	if err != nil {
		return nil, err
	}
	dataLen, err := readInt64(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	if dataLen < 0 {
		return nil, fmt.Errorf("%w: %s: negative data length", ErrReadFailed, opts.Source)
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}

	c := &CompactFst{
		arcType: hdr.ArcType,
		wc:      wc,
		start:   StateID(hdr.Start),
		data:    data,
		props:   hdr.Properties.structuralMask(),
		isyms:   isyms,
		osyms:   osyms,
	}
	if err := c.scanOffsets(hdr.NumStates); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	return c, nil
}

// scanOffsets walks the packed stream once, recording where each state
// record starts and how many arcs it holds.
func (c *CompactFst) scanOffsets(numStates int64) error {
	c.stateOffsets = make([]int64, numStates+1)
	c.arcCounts = make([]int64, numStates)
	w := int64(c.wc.size)
	size := int64(len(c.data))
	var off int64
	for s := int64(0); s < numStates; s++ {
		c.stateOffsets[s] = off
		if off >= size {
			return fmt.Errorf("packed stream truncated at state %d", s)
		}
		if c.data[off] == 1 {
			off += w
		}
		off++
		if off >= size {
			return fmt.Errorf("packed stream truncated at state %d", s)
		}
		narcs, n := binary.Uvarint(c.data[off:])
		if n <= 0 {
			return fmt.Errorf("invalid arc count varint at state %d", s)
		}
		off += int64(n)
		c.arcCounts[s] = int64(narcs)
		for i := uint64(0); i < narcs; i++ {
			var delta int64
			for field := 0; field < 3; field++ {
				if off >= size {
					return fmt.Errorf("packed stream truncated at state %d", s)
				}
				v, n := binary.Varint(c.data[off:])
				if n <= 0 {
					return fmt.Errorf("invalid arc varint at state %d", s)
				}
				off += int64(n)
				if field == 1 {
					off += w
				}
				delta = v
			}
			if dest := s + delta; dest < 0 || dest >= numStates {
				return fmt.Errorf("arc from state %d targets state %d of %d", s, dest, numStates)
			}
		}
	}
	c.stateOffsets[numStates] = off
	if off != int64(len(c.data)) {
		return fmt.Errorf("packed stream has %d trailing bytes", int64(len(c.data))-off)
	}
	return nil
}

// convertToCompact packs any automaton into the compact byte stream.
func convertToCompact(src Fst) (Fst, error) {
	wc, err := lookupWeight(src.ArcType())
	if err != nil {
		return nil, err
	}
	c := &CompactFst{
		arcType: src.ArcType(),
		wc:      wc,
		start:   src.Start(),
		props:   src.Properties(PropBinaryAll, false).structuralMask(),
		isyms:   src.InputSymbols(),
		osyms:   src.OutputSymbols(),
	}

	n := src.NumStates()
	c.stateOffsets = make([]int64, n+1)
	c.arcCounts = make([]int64, n)
	wbuf := make([]byte, wc.size)
	var varbuf [binary.MaxVarintLen64]byte

	putVarint := func(v int64) {
		m := binary.PutVarint(varbuf[:], v)
		c.data = append(c.data, varbuf[:m]...)
	}

	for s := StateID(0); int64(s) < n; s++ {
		c.stateOffsets[s] = int64(len(c.data))
		if final := src.Final(s); final != nil {
			c.data = append(c.data, 1)
			final.Encode(wbuf)
			c.data = append(c.data, wbuf...)
		} else {
			c.data = append(c.data, 0)
		}
		m := binary.PutUvarint(varbuf[:], uint64(src.NumArcs(s)))
		c.data = append(c.data, varbuf[:m]...)
		for a := range src.Arcs(s) {
			putVarint(int64(a.ILabel))
			putVarint(int64(a.OLabel) - int64(a.ILabel))
			a.Weight.Encode(wbuf)
			c.data = append(c.data, wbuf...)
			putVarint(int64(a.NextState) - int64(s))
			c.arcCounts[s]++
		}
	}
	c.stateOffsets[n] = int64(len(c.data))
	return c, nil
}

func init() {
	RegisterFstType(CompactFstType, readCompactFst, convertToCompact)
}
