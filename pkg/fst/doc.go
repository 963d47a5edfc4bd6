// Package fst is the runtime core of a weighted finite-state
// transducer library: the type-erased automaton contract, its binary
// persistence format, and the structural algorithms that work across
// every concrete encoding.
//
// # Encodings
//
// Four physical representations implement the Fst interface:
//
//	vector            growable, mutable (VectorFst)
//	compact           varint-packed, immutable (CompactFst)
//	const             fixed-width tables, mappable (ConstFst)
//	ilabel_lookahead  const-style with a per-state label index
//
// Algorithms are written once against Fst (or MutableFst) and never
// know which encoding backs a handle. New encodings join through
// RegisterFstType.
//
// # Persistence
//
// Every file opens with the same header: magic number, encoding and
// arc type names, format version, flags, the cached property mask and
// structural counts. The header is validated magic-first; a mismatch
// is reported to the caller, never fatal. Bodies are encoding-specific
// and follow the header after optional symbol tables. ConstFst bodies
// can be memory-mapped instead of copied, selected per read through
// ReadOptions or the process-wide Config.
//
// # Weights
//
// Weights are opaque: the core needs a fixed serialized width and
// equality, nothing else. Semiring arithmetic belongs to algorithm
// packages layered on top. TropicalWeight ships as the stock weight.
//
// # Ownership
//
// A concrete encoding is owned by exactly one handle. Operations that
// cannot work in place (Convert always, TopSortFst on an immutable
// input) return a new handle and the caller retires the old one.
package fst
