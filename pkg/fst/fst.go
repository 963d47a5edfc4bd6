package fst

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync"
)

// Fst is the type-erased automaton contract. Every concrete encoding
// implements it, and every algorithm in this library is written
// against it.
type Fst interface {
	// Start returns the start state, or NoStateID when none is set.
	Start() StateID

	// Final returns the final weight of s, or nil when s is not final.
	Final(s StateID) Weight

	// NumStates returns the number of states.
	NumStates() int64

	// NumArcs returns the number of arcs leaving s, 0 when s is out of
	// range.
	NumArcs(s StateID) int64

	// Arcs iterates the arcs leaving s in stored order. The sequence is
	// finite and may be ranged over any number of times.
	Arcs(s StateID) iter.Seq[Arc]

	// Properties returns the property bits selected by mask. When
	// compute is true (or the process configuration forces
	// verification), unknown predicates in mask are evaluated from the
	// structure and cached.
	Properties(mask PropertyMask, compute bool) PropertyMask

	// FstType names the concrete encoding family, e.g. "vector".
	FstType() string

	// ArcType names the weight type carried on arcs, e.g. "standard".
	ArcType() string

	// InputSymbols and OutputSymbols return the attached symbol
	// tables, nil when none.
	InputSymbols() *SymbolTable
	OutputSymbols() *SymbolTable

	// WriteTo serializes header, symbol tables and body.
	WriteTo(w io.Writer) error
}

// MutableFst extends Fst with in-place mutation. A mutable encoding
// reports PropMutable.
type MutableFst interface {
	Fst

	// SetStart designates the start state.
	SetStart(s StateID) error

	// AddState appends a fresh state and returns its id.
	AddState() StateID

	// AddArc appends an arc to s's arc list.
	AddArc(s StateID, arc Arc) error

	// SetFinal sets the final weight of s; nil makes s non-final.
	SetFinal(s StateID, w Weight) error

	// SetInputSymbols and SetOutputSymbols attach symbol tables.
	SetInputSymbols(t *SymbolTable)
	SetOutputSymbols(t *SymbolTable)

	// SetProperties overwrites the property bits selected by mask
	// with props. Algorithms use it to certify facts they just
	// established.
	SetProperties(props, mask PropertyMask)

	// StateSort renumbers states: order[old] is the new id of state
	// old. order must be a permutation of the state id space. Arcs and
	// the start state are rewritten to match.
	StateSort(order []StateID) error
}

// fstTypeEntry binds an encoding family name to its body reader and
// its from-anything constructor.
type fstTypeEntry struct {
	read    func(r io.Reader, opts *ReadOptions) (Fst, error)
	convert func(src Fst) (Fst, error)
}

var (
	registryMu  sync.RWMutex
	fstRegistry = make(map[string]fstTypeEntry)
)

// RegisterFstType adds an encoding family to the registry consulted by
// Read and Convert. Duplicate registration panics.
func RegisterFstType(name string,
	read func(r io.Reader, opts *ReadOptions) (Fst, error),
	convert func(src Fst) (Fst, error),
) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := fstRegistry[name]; ok {
		panic("fst: FST type registered twice: " + name)
	}
	fstRegistry[name] = fstTypeEntry{read: read, convert: convert}
}

func lookupFstType(name string) (fstTypeEntry, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := fstRegistry[name]
	if !ok {
		return fstTypeEntry{}, fmt.Errorf("%w: %q", ErrUnknownFstType, name)
	}
	return e, nil
}

// Read materializes an automaton from the named file. An empty path or
// "-" reads from standard input. Failures such as a missing file, a bad
// header, or an unregistered encoding are returned to the caller; nothing
// here aborts the process.
func Read(path string) (Fst, error) {
	source := path
	if path == "" || path == "-" {
		source = "standard input"
		return ReadFrom(os.Stdin, NewReadOptions(source))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	opts := NewReadOptions(source)
	opts.file = f
	fstObj, rerr := ReadFrom(f, opts)
	if !opts.fileTaken {
		if cerr := f.Close(); cerr != nil && rerr == nil {
			return nil, fmt.Errorf("close %s: %w", path, cerr)
		}
	}
	return fstObj, rerr
}

// ReadFrom parses a header from r and dispatches to the encoding's
// body reader. When opts.Header is already set the stream must be
// positioned at the body, matching the "header read elsewhere" form of
// ReadOptions.
func ReadFrom(r io.Reader, opts *ReadOptions) (Fst, error) {
	if opts == nil {
		opts = NewReadOptions("unspecified")
	}
	hdr := opts.Header
	if hdr == nil {
		hdr = &Header{}
		if err := hdr.Read(r, opts.Source, false); err != nil {
			return nil, err
		}
		opts.Header = hdr
	}
	entry, err := lookupFstType(hdr.FstType)
	if err != nil {
		slog.Error("[fst]",
			slog.String("message", "unknown FST type in header"),
			slog.String("source", opts.Source),
			slog.String("fst_type", hdr.FstType))
		return nil, err
	}
	return entry.read(r, opts)
}

// Write serializes f to the named file. An empty path or "-" writes to
// standard output.
func Write(f Fst, path string) error {
	if path == "" || path == "-" {
		return f.WriteTo(os.Stdout)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.WriteTo(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// CountArcs sums NumArcs over all states.
func CountArcs(f Fst) int64 {
	var total int64
	for s := StateID(0); int64(s) < f.NumStates(); s++ {
		total += f.NumArcs(s)
	}
	return total
}

// symbolFlags computes the header bits describing which symbol tables
// the file carries.
func symbolFlags(f Fst) int32 {
	var flags int32
	if f.InputSymbols() != nil {
		flags |= FlagHasISymbols
	}
	if f.OutputSymbols() != nil {
		flags |= FlagHasOSymbols
	}
	return flags
}

// writeSymbolSections writes the attached symbol tables in header
// order: input first, then output.
func writeSymbolSections(w io.Writer, f Fst) error {
	if t := f.InputSymbols(); t != nil {
		if err := t.WriteTo(w); err != nil {
			return err
		}
	}
	if t := f.OutputSymbols(); t != nil {
		if err := t.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// readSymbolSections consumes the symbol tables the header advertises
// and resolves the substitution rules in opts: stored tables may be
// skipped or overridden by the caller's tables.
func readSymbolSections(r io.Reader, hdr *Header, opts *ReadOptions) (isyms, osyms *SymbolTable, err error) {
	if hdr.Flags&FlagHasISymbols != 0 {
		t, terr := ReadSymbolTable(r)
		if terr != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, terr)
		}
		if opts.ReadISymbols {
			isyms = t
		}
	}
	if hdr.Flags&FlagHasOSymbols != 0 {
		t, terr := ReadSymbolTable(r)
		if terr != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, opts.Source, terr)
		}
		if opts.ReadOSymbols {
			osyms = t
		}
	}
	if opts.ISymbols != nil {
		isyms = opts.ISymbols
	}
	if opts.OSymbols != nil {
		osyms = opts.OSymbols
	}
	return isyms, osyms, nil
}
