package fst

import (
	"fmt"
	"io"
)

// symbolTableMagic opens a serialized symbol table embedded in an
// automaton file.
const symbolTableMagic int32 = 2125658996

// SymbolTable maps labels to human-readable strings. Only the minimal
// surface needed to round-trip the tables stored alongside an
// automaton lives here; symbol-table tooling is a separate concern.
type SymbolTable struct {
	name    string
	symbols []string
	labels  map[string]Label
}

// NewSymbolTable returns an empty table with the given name.
func NewSymbolTable(name string) *SymbolTable {
	return &SymbolTable{name: name, labels: make(map[string]Label)}
}

// Name returns the table's name.
func (t *SymbolTable) Name() string { return t.name }

// NumSymbols returns the number of entries.
func (t *SymbolTable) NumSymbols() int { return len(t.symbols) }

// AddSymbol appends sym and returns its label. Adding an existing
// symbol returns the existing label.
func (t *SymbolTable) AddSymbol(sym string) Label {
	if l, ok := t.labels[sym]; ok {
		return l
	}
	l := Label(len(t.symbols))
	t.symbols = append(t.symbols, sym)
	t.labels[sym] = l
	return l
}

// Find returns the string for a label, or "" when out of range.
func (t *SymbolTable) Find(l Label) string {
	if l < 0 || int(l) >= len(t.symbols) {
		return ""
	}
	return t.symbols[l]
}

// Lookup returns the label for a symbol.
func (t *SymbolTable) Lookup(sym string) (Label, bool) {
	l, ok := t.labels[sym]
	return l, ok
}

// WriteTo serializes the table.
func (t *SymbolTable) WriteTo(w io.Writer) error {
	if err := writeInt32(w, symbolTableMagic); err != nil {
		return err
	}
	if err := writeString(w, t.name); err != nil {
		return err
	}
	if err := writeInt64(w, int64(len(t.symbols))); err != nil {
		return err
	}
	for _, sym := range t.symbols {
		if err := writeString(w, sym); err != nil {
			return err
		}
	}
	return nil
}

// ReadSymbolTable deserializes a table written by WriteTo.
func ReadSymbolTable(r io.Reader) (*SymbolTable, error) {
	magic, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if magic != symbolTableMagic {
		return nil, fmt.Errorf("%w: bad symbol table magic %d", ErrReadFailed, magic)
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	n, err := readInt64(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative symbol count %d", ErrReadFailed, n)
	}
	t := NewSymbolTable(name)
	for i := int64(0); i < n; i++ {
		sym, err := readString(r)
		if err != nil {
			return nil, err
		}
		t.AddSymbol(sym)
	}
	return t, nil
}
