package fst

import (
	"fmt"
	"log/slog"
	"os"
)

// FileReadMode selects how a persisted automaton is materialized.
type FileReadMode int

const (
	// ReadModeCopy loads the body into process memory.
	ReadModeCopy FileReadMode = iota

	// ReadModeMap memory-maps the body where the encoding supports it.
	ReadModeMap
)

func (m FileReadMode) String() string {
	if m == ReadModeMap {
		return "MAP"
	}
	return "READ"
}

// ReadModeFromString maps the configuration strings to a mode: "read"
// is a copy, "map" is a memory map. Anything else logs an error and
// falls back to copy; the lenient default keeps misconfigured
// deployments running and is preserved deliberately.
func ReadModeFromString(mode string) FileReadMode {
	switch mode {
	case "read":
		return ReadModeCopy
	case "map":
		return ReadModeMap
	}
	slog.Error("[fst]",
		slog.String("message", "unknown file read mode"),
		slog.String("mode", mode))
	return ReadModeCopy
}

// ReadOptions describes how a persisted automaton should be read back:
// where it came from (for diagnostics), whether the header was already
// parsed, which symbol tables to substitute, and the materialization
// mode.
type ReadOptions struct {
	// Source labels the stream in error messages.
	Source string

	// Header, when non-nil, was already read from the stream and the
	// body reader must not read it again.
	Header *Header

	// ISymbols and OSymbols override the tables stored in the file.
	ISymbols *SymbolTable
	OSymbols *SymbolTable

	// ReadISymbols and ReadOSymbols control whether stored tables are
	// read at all. Both default to true.
	ReadISymbols bool
	ReadOSymbols bool

	// Mode is derived from the process configuration at construction.
	Mode FileReadMode

	// file is set by Read when the stream is a real file, so encodings
	// that can memory-map have access to the descriptor. An encoding
	// that keeps the mapping takes ownership by setting fileTaken.
	file      *os.File
	fileTaken bool
}

// NewReadOptions builds options for a stream whose header has not been
// read yet.
func NewReadOptions(source string) *ReadOptions {
	return &ReadOptions{
		Source:       source,
		ReadISymbols: true,
		ReadOSymbols: true,
		Mode:         ReadModeFromString(ProcessConfig().ReadMode),
	}
}

// NewReadOptionsWithHeader builds options carrying an already-parsed
// header, so body readers skip the second header read.
func NewReadOptionsWithHeader(source string, header *Header) *ReadOptions {
	opts := NewReadOptions(source)
	opts.Header = header
	return opts
}

// DebugString renders the options for diagnostics.
func (o *ReadOptions) DebugString() string {
	set := func(v bool) string {
		if v {
			return "set"
		}
		return "null"
	}
	return fmt.Sprintf(
		"source: %q mode: %q read_isymbols: %t read_osymbols: %t header: %s isymbols: %s osymbols: %s",
		o.Source, o.Mode, o.ReadISymbols, o.ReadOSymbols,
		set(o.Header != nil), set(o.ISymbols != nil), set(o.OSymbols != nil))
}
