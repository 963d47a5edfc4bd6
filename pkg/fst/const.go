package fst

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// ConstFstType is the encoding family name of ConstFst.
const ConstFstType = "const"

const constFileVersion int32 = 1

// ConstFst is the constant encoding: immutable fixed-width state and
// arc tables that decode in place. The tables are either copied into
// memory or borrowed from a read-only file mapping, which makes this
// the cheapest encoding to load for large automata.
//
// Body layout after header and symbol tables:
//
//	padding     int32 length + zeros (16-byte body alignment when enabled)
//	states      num_states records of (final u8, final weight W, num_arcs int32)
//	arcs        num_arcs records of (ilabel int32, olabel int32, weight W, nextstate int32)
//	checksum    xxhash64 of states || arcs
//
// W is the fixed weight size of the arc type. A non-final state stores
// W zero bytes in the weight slot so records stay fixed width.
type ConstFst struct {
	arcType    string
	wc         weightCodec
	start      StateID
	states     []byte
	arcs       []byte
	arcOffsets []int64
	props      PropertyMask
	isyms      *SymbolTable
	osyms      *SymbolTable
	mf         *mappedFile
}

// bodyChecksum hashes the state and arc tables as one stream.
func bodyChecksum(states, arcs []byte) uint64 {
	d := xxhash.New()
	_, _ = d.Write(states)
	_, _ = d.Write(arcs)
	return d.Sum64()
}

func (c *ConstFst) stateRecSize() int64 { return int64(5 + c.wc.size) }
func (c *ConstFst) arcRecSize() int64   { return int64(12 + c.wc.size) }

func (c *ConstFst) validState(s StateID) bool {
	return s >= 0 && int64(s) < int64(len(c.arcOffsets))-1
}

func (c *ConstFst) Start() StateID { return c.start }

func (c *ConstFst) Final(s StateID) Weight {
	if !c.validState(s) {
		return nil
	}
	off := int64(s) * c.stateRecSize()
	if c.states[off] == 0 {
		return nil
	}
	return c.wc.decode(c.states[off+1 : off+1+int64(c.wc.size)])
}

func (c *ConstFst) NumStates() int64 { return int64(len(c.arcOffsets)) - 1 }

func (c *ConstFst) NumArcs(s StateID) int64 {
	if !c.validState(s) {
		return 0
	}
	return c.arcOffsets[s+1] - c.arcOffsets[s]
}

func (c *ConstFst) Arcs(s StateID) iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		if !c.validState(s) {
			return
		}
		rec := c.arcRecSize()
		for i := c.arcOffsets[s]; i < c.arcOffsets[s+1]; i++ {
			if !yield(c.decodeArc(i * rec)) {
				return
			}
		}
	}
}

func (c *ConstFst) decodeArc(off int64) Arc {
	w := int64(c.wc.size)
	return Arc{
		ILabel:    Label(int32(binary.LittleEndian.Uint32(c.arcs[off : off+4]))),
		OLabel:    Label(int32(binary.LittleEndian.Uint32(c.arcs[off+4 : off+8]))),
		Weight:    c.wc.decode(c.arcs[off+8 : off+8+w]),
		NextState: StateID(int32(binary.LittleEndian.Uint32(c.arcs[off+8+w : off+12+w]))),
	}
}

func (c *ConstFst) Properties(mask PropertyMask, compute bool) PropertyMask {
	if compute || ProcessConfig().VerifyProperties {
		c.props = computeProperties(c, mask, c.props)
	}
	return c.props & mask
}

func (c *ConstFst) FstType() string { return ConstFstType }

func (c *ConstFst) ArcType() string { return c.arcType }

func (c *ConstFst) InputSymbols() *SymbolTable  { return c.isyms }
func (c *ConstFst) OutputSymbols() *SymbolTable { return c.osyms }

// Mapped reports whether the tables are borrowed from a file mapping.
func (c *ConstFst) Mapped() bool { return c.mf != nil }

// Close releases the file mapping, if any. A copied ConstFst needs no
// cleanup and Close is a no-op.
func (c *ConstFst) Close() error {
	if c.mf == nil {
		return nil
	}
	mf := c.mf
	c.mf = nil
	c.states = nil
	c.arcs = nil
	return mf.Close()
}

func (c *ConstFst) WriteTo(w io.Writer) error {
	flags := symbolFlags(c) | FlagHasChecksum
	if ProcessConfig().AlignWrites {
		flags |= FlagIsAligned
	}
	hdr := Header{
		FstType:    ConstFstType,
		ArcType:    c.arcType,
		Version:    constFileVersion,
		Flags:      flags,
		Properties: c.props.structuralMask(),
		Start:      int64(c.start),
		NumStates:  c.NumStates(),
		NumArcs:    int64(len(c.arcs)) / c.arcRecSize(),
	}
	cw := &countingWriter{w: w}
	if err := hdr.Write(cw, ConstFstType); err != nil {
		return err
	}
	if err := writeSymbolSections(cw, c); err != nil {
		return err
	}
	boundary := int64(4)
	if flags&FlagIsAligned != 0 {
		boundary = bodyAlignment
	}
	if err := cw.writePadding(boundary); err != nil {
		return err
	}
	if _, err := cw.Write(c.states); err != nil {
		return err
	}
	if _, err := cw.Write(c.arcs); err != nil {
		return err
	}
	return writeUint64(cw, bodyChecksum(c.states, c.arcs))
}

// readConstFst materializes the body following an already-parsed
// header. In map mode the state and arc tables are borrowed from a
// read-only mapping of the source file; when the source is not a real
// file the read falls back to an in-memory copy with a warning.
func readConstFst(r io.Reader, opts *ReadOptions) (Fst, error) {
	hdr := opts.Header
	wc, err := lookupWeight(hdr.ArcType)
	if err != nil {
		return nil, err
	}
	isyms, osyms, err := readSymbolSections(r, hdr, opts)
	if err != nil {
		return nil, err
	}
	if err := skipPadding(r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}

	c := &ConstFst{
		arcType: hdr.ArcType,
		wc:      wc,
		start:   StateID(hdr.Start),
		props:   hdr.Properties.structuralMask(),
		isyms:   isyms,
		osyms:   osyms,
	}
	statesLen := hdr.NumStates * c.stateRecSize()
	arcsLen := hdr.NumArcs * c.arcRecSize()

	if opts.Mode == ReadModeMap {
		if opts.file != nil {
			if err := c.mapTables(opts, statesLen, arcsLen, hdr); err != nil {
				return nil, err
			}
			return c, nil
		}
		slog.Warn("[fst]",
			slog.String("message", "source is not mappable, falling back to copy"),
			slog.String("source", opts.Source))
	}

	c.states = make([]byte, statesLen)
	if _, err := io.ReadFull(r, c.states); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	c.arcs = make([]byte, arcsLen)
	if _, err := io.ReadFull(r, c.arcs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	if hdr.Flags&FlagHasChecksum != 0 {
		sum, serr := readUint64(r)
		if serr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, serr)
		}
		if sum != bodyChecksum(c.states, c.arcs) {
			return nil, fmt.Errorf("%w: %s", ErrBadChecksum, opts.Source)
		}
	}
	if err := c.buildArcOffsets(hdr); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	return c, nil
}

// mapTables points the state and arc tables into a mapping of the
// source file, taking ownership of the descriptor.
func (c *ConstFst) mapTables(opts *ReadOptions, statesLen, arcsLen int64, hdr *Header) error {
	off, err := opts.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	mf, err := mapFile(opts.file)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	data := mf.bytes()
	need := off + statesLen + arcsLen
	if hdr.Flags&FlagHasChecksum != 0 {
		need += 8
	}
	if int64(len(data)) < need {
		_ = mf.Close()
		return fmt.Errorf("%w: %s: mapped file shorter than body", ErrReadFailed, opts.Source)
	}
	c.states = data[off : off+statesLen]
	c.arcs = data[off+statesLen : off+statesLen+arcsLen]
	if hdr.Flags&FlagHasChecksum != 0 {
		sum := binary.LittleEndian.Uint64(data[off+statesLen+arcsLen : need])
		if sum != bodyChecksum(c.states, c.arcs) {
			_ = mf.Close()
			return fmt.Errorf("%w: %s", ErrBadChecksum, opts.Source)
		}
	}
	if err := c.buildArcOffsets(hdr); err != nil {
		_ = mf.Close()
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, err)
	}
	c.mf = mf
	opts.fileTaken = true
	return nil
}

// buildArcOffsets prefix-sums the per-state arc counts so arc ranges
// resolve in constant time.
func (c *ConstFst) buildArcOffsets(hdr *Header) error {
	rec := c.stateRecSize()
	c.arcOffsets = make([]int64, hdr.NumStates+1)
	var total int64
	for s := int64(0); s < hdr.NumStates; s++ {
		off := s*rec + 1 + int64(c.wc.size)
		narcs := int64(int32(binary.LittleEndian.Uint32(c.states[off : off+4])))
		if narcs < 0 {
			return fmt.Errorf("state %d has negative arc count", s)
		}
		c.arcOffsets[s] = total
		total += narcs
	}
	c.arcOffsets[hdr.NumStates] = total
	if total != hdr.NumArcs {
		return fmt.Errorf("arc counts sum to %d, header says %d", total, hdr.NumArcs)
	}
	arcRec := c.arcRecSize()
	destOff := 8 + int64(c.wc.size)
	for i := int64(0); i < total; i++ {
		off := i*arcRec + destOff
		dest := int64(int32(binary.LittleEndian.Uint32(c.arcs[off : off+4])))
		if dest < 0 || dest >= hdr.NumStates {
			return fmt.Errorf("arc %d targets state %d of %d", i, dest, hdr.NumStates)
		}
	}
	return nil
}

// convertToConst packs any automaton into constant tables.
func convertToConst(src Fst) (Fst, error) {
	wc, err := lookupWeight(src.ArcType())
	if err != nil {
		return nil, err
	}
	c := &ConstFst{
		arcType: src.ArcType(),
		wc:      wc,
		start:   src.Start(),
		props:   src.Properties(PropBinaryAll, false).structuralMask(),
		isyms:   src.InputSymbols(),
		osyms:   src.OutputSymbols(),
	}

	n := src.NumStates()
	stateRec := c.stateRecSize()
	arcRec := c.arcRecSize()
	c.states = make([]byte, n*stateRec)
	c.arcs = make([]byte, CountArcs(src)*arcRec)
	c.arcOffsets = make([]int64, n+1)

	var arcIdx int64
	w := int64(wc.size)
	for s := StateID(0); int64(s) < n; s++ {
		off := int64(s) * stateRec
		if final := src.Final(s); final != nil {
			c.states[off] = 1
			final.Encode(c.states[off+1 : off+1+w])
		}
		c.arcOffsets[s] = arcIdx
		var narcs int32
		for a := range src.Arcs(s) {
			ao := arcIdx * arcRec
			binary.LittleEndian.PutUint32(c.arcs[ao:ao+4], uint32(a.ILabel))
			binary.LittleEndian.PutUint32(c.arcs[ao+4:ao+8], uint32(a.OLabel))
			a.Weight.Encode(c.arcs[ao+8 : ao+8+w])
			binary.LittleEndian.PutUint32(c.arcs[ao+8+w:ao+12+w], uint32(a.NextState))
			arcIdx++
			narcs++
		}
		binary.LittleEndian.PutUint32(c.states[off+1+w:off+5+w], uint32(narcs))
	}
	c.arcOffsets[n] = arcIdx
	return c, nil
}

func init() {
	RegisterFstType(ConstFstType, readConstFst, convertToConst)
}
