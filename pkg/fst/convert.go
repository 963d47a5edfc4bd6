package fst

import (
	"fmt"
	"log/slog"
)

// Convert builds a new automaton of the requested encoding family from
// src, preserving states in id order, arcs in stored order, final
// weights and the start state. Requesting the source's own type yields
// a fresh copy. An unregistered target reports ErrUnknownFstType.
//
// Structural property flags carry over to the result; anything
// encoding-specific is left for the target to recompute.
func Convert(src Fst, fstType string) (Fst, error) {
	entry, err := lookupFstType(fstType)
	if err != nil {
		slog.Error("[fst]",
			slog.String("message", "cannot convert to unknown FST type"),
			slog.String("fst_type", fstType))
		return nil, err
	}
	return entry.convert(src)
}

// copyInto replays src state by state into an empty mutable encoding.
func copyInto(dst MutableFst, src Fst) error {
	n := src.NumStates()
	if vf, ok := dst.(*VectorFst); ok {
		vf.ReserveStates(n)
	} else {
		for dst.NumStates() < n {
			dst.AddState()
		}
	}
	for s := StateID(0); int64(s) < n; s++ {
		if final := src.Final(s); final != nil {
			if err := dst.SetFinal(s, final); err != nil {
				return fmt.Errorf("copy state %d: %w", s, err)
			}
		}
		for a := range src.Arcs(s) {
			if err := dst.AddArc(s, a); err != nil {
				return fmt.Errorf("copy state %d: %w", s, err)
			}
		}
	}
	if err := dst.SetStart(src.Start()); err != nil {
		return fmt.Errorf("copy start: %w", err)
	}
	dst.SetInputSymbols(src.InputSymbols())
	dst.SetOutputSymbols(src.OutputSymbols())
	return nil
}
