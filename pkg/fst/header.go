package fst

import (
	"fmt"
	"io"
	"log/slog"
)

// MagicNumber is the sentinel that opens every persisted automaton.
// It is validated before any other header field is trusted.
const MagicNumber int32 = 2125659606

// Header flag bits (the int32 Flags field, distinct from Properties).
const (
	FlagHasISymbols int32 = 1 << iota
	FlagHasOSymbols
	FlagIsAligned
	FlagHasChecksum
)

// bodyAlignment is the boundary encodings pad to when FlagIsAligned is
// set, so memory-mapped fixed-width tables start on an aligned offset.
const bodyAlignment int64 = 16

// Header is the versioned binary descriptor written ahead of every
// persisted automaton body.
//
// Wire layout, all little-endian, strings int32-length-prefixed:
//
//	magic      int32
//	fst_type   string
//	arc_type   string
//	version    int32
//	flags      int32
//	properties uint64
//	start      int64   (-1 = no start state)
//	num_states int64
//	num_arcs   int64
type Header struct {
	FstType    string
	ArcType    string
	Version    int32
	Flags      int32
	Properties PropertyMask
	Start      int64
	NumStates  int64
	NumArcs    int64
}

// Read parses a header from r. source labels the stream in diagnostics.
// If rewind is true, r must be an io.Seeker and the stream position is
// restored before returning, on failure and on success alike, so the
// header can be re-read as part of a larger body read. A magic number
// mismatch or a short stream is reported to the caller, never raised as
// a fatal condition.
func (h *Header) Read(r io.Reader, source string, rewind bool) error {
	var pos int64
	var seeker io.Seeker
	if rewind {
		s, ok := r.(io.Seeker)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotSeekable, source)
		}
		seeker = s
		p, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("header read %s: %w", source, err)
		}
		pos = p
	}

	restore := func() {
		if seeker != nil {
			_, _ = seeker.Seek(pos, io.SeekStart)
		}
	}

	magic, err := readInt32(r)
	if err != nil {
		restore()
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, source, err)
	}
	if magic != MagicNumber {
		slog.Error("[fst]",
			slog.String("message", "bad FST header"),
			slog.String("source", source),
			slog.Int64("magic", int64(magic)))
		restore()
		return fmt.Errorf("%w: %s: got %d", ErrBadHeader, source, magic)
	}

	if err := h.readFields(r); err != nil {
		slog.Error("[fst]",
			slog.String("message", "header read failed"),
			slog.String("source", source),
			slog.Any("error", err))
		restore()
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, source, err)
	}

	restore()
	return nil
}

func (h *Header) readFields(r io.Reader) error {
	var err error
	if h.FstType, err = readString(r); err != nil {
		return err
	}
	if h.ArcType, err = readString(r); err != nil {
		return err
	}
	if h.Version, err = readInt32(r); err != nil {
		return err
	}
	if h.Flags, err = readInt32(r); err != nil {
		return err
	}
	props, err := readUint64(r)
	if err != nil {
		return err
	}
	h.Properties = PropertyMask(props)
	if h.Start, err = readInt64(r); err != nil {
		return err
	}
	if h.NumStates, err = readInt64(r); err != nil {
		return err
	}
	if h.NumArcs, err = readInt64(r); err != nil {
		return err
	}
	if h.NumStates < 0 || h.NumStates > maxHeaderCount {
		return fmt.Errorf("state count %d out of range", h.NumStates)
	}
	if h.NumArcs < 0 || h.NumArcs > maxHeaderCount {
		return fmt.Errorf("arc count %d out of range", h.NumArcs)
	}
	if h.Start != NoStateIDInt64 && (h.Start < 0 || h.Start >= h.NumStates) {
		return fmt.Errorf("start state %d out of range for %d states", h.Start, h.NumStates)
	}
	return nil
}

// maxHeaderCount caps the state and arc counts a header may claim.
// Counts beyond it cannot come from a well-formed file and would only
// size allocations for a body the stream cannot actually carry.
const maxHeaderCount = 1 << 30

// NoStateIDInt64 is NoStateID widened to the header field type.
const NoStateIDInt64 = int64(NoStateID)

// Write serializes the header, magic number first. Failures are
// underlying stream faults, not format errors.
func (h *Header) Write(w io.Writer, source string) error {
	fields := []func() error{
		func() error { return writeInt32(w, MagicNumber) },
		func() error { return writeString(w, h.FstType) },
		func() error { return writeString(w, h.ArcType) },
		func() error { return writeInt32(w, h.Version) },
		func() error { return writeInt32(w, h.Flags) },
		func() error { return writeUint64(w, uint64(h.Properties)) },
		func() error { return writeInt64(w, h.Start) },
		func() error { return writeInt64(w, h.NumStates) },
		func() error { return writeInt64(w, h.NumArcs) },
	}
	for _, f := range fields {
		if err := f(); err != nil {
			return fmt.Errorf("header write %s: %w", source, err)
		}
	}
	return nil
}

// DebugString renders every field, labeled, in a fixed order. It is a
// diagnostic aid, not a parseable format.
func (h *Header) DebugString() string {
	return fmt.Sprintf(
		"fsttype: %q arctype: %q version: %d flags: %d properties: %d start: %d numstates: %d numarcs: %d",
		h.FstType, h.ArcType, h.Version, h.Flags, uint64(h.Properties),
		h.Start, h.NumStates, h.NumArcs)
}
