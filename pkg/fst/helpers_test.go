package fst

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildAcyclicFst returns the 3-state automaton with arcs 0→1, 1→2 and
// 0→2, start 0, state 2 final.
func buildAcyclicFst(t *testing.T) *VectorFst {
	t.Helper()
	v := NewVectorFst(TropicalArcType)
	s0 := v.AddState()
	s1 := v.AddState()
	s2 := v.AddState()
	require.NoError(t, v.SetStart(s0))
	require.NoError(t, v.AddArc(s0, Arc{ILabel: 1, OLabel: 1, Weight: TropicalWeight(0.5), NextState: s1}))
	require.NoError(t, v.AddArc(s1, Arc{ILabel: 2, OLabel: 3, Weight: TropicalWeight(1.5), NextState: s2}))
	require.NoError(t, v.AddArc(s0, Arc{ILabel: 3, OLabel: 3, Weight: TropicalWeight(2.5), NextState: s2}))
	require.NoError(t, v.SetFinal(s2, TropicalWeight(0)))
	return v
}

// buildCyclicFst is buildAcyclicFst plus the closing arc 2→0.
func buildCyclicFst(t *testing.T) *VectorFst {
	t.Helper()
	v := buildAcyclicFst(t)
	require.NoError(t, v.AddArc(2, Arc{ILabel: 4, OLabel: 4, Weight: TropicalWeight(3), NextState: 0}))
	return v
}

func collectArcs(f Fst, s StateID) []Arc {
	var arcs []Arc
	for a := range f.Arcs(s) {
		arcs = append(arcs, a)
	}
	return arcs
}

// requireEquivalent asserts a and b agree on start state, state count,
// final weights, and per-state arc sequences.
func requireEquivalent(t *testing.T, want, got Fst) {
	t.Helper()
	require.Equal(t, want.Start(), got.Start())
	require.Equal(t, want.NumStates(), got.NumStates())
	for s := StateID(0); int64(s) < want.NumStates(); s++ {
		require.Equal(t, want.NumArcs(s), got.NumArcs(s), "state %d arc count", s)
		wf, gf := want.Final(s), got.Final(s)
		if wf == nil {
			require.Nil(t, gf, "state %d final", s)
		} else {
			require.NotNil(t, gf, "state %d final", s)
			require.True(t, wf.Equal(gf), "state %d final weight", s)
		}
		wa, ga := collectArcs(want, s), collectArcs(got, s)
		require.Len(t, ga, len(wa))
		for i := range wa {
			require.True(t, wa[i].Equal(ga[i]), "state %d arc %d: want %+v got %+v", s, i, wa[i], ga[i])
		}
	}
}

// writeTempFst serializes f into a fresh file and returns its path.
func writeTempFst(t *testing.T, f Fst) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fst")
	require.NoError(t, Write(f, path))
	return path
}

// withProcessConfig swaps the process configuration for one test.
func withProcessConfig(t *testing.T, cfg Config) {
	t.Helper()
	old := ProcessConfig()
	SetProcessConfig(cfg)
	t.Cleanup(func() { SetProcessConfig(old) })
}

// writeTropical appends the raw encoding of a tropical weight, for
// tests that hand-assemble file bodies.
func writeTropical(t *testing.T, buf *bytes.Buffer, w TropicalWeight) {
	t.Helper()
	b := make([]byte, w.ByteLen())
	w.Encode(b)
	_, err := buf.Write(b)
	require.NoError(t, err)
}

// writeFlatBody appends a single non-final state with one arc in the
// fixed-field layout shared by the vector and lookahead encodings.
func writeFlatBody(t *testing.T, buf *bytes.Buffer, dest int32) {
	t.Helper()
	require.NoError(t, writeByte(buf, 0))
	require.NoError(t, writeInt64(buf, 1))
	require.NoError(t, writeInt32(buf, 1))
	require.NoError(t, writeInt32(buf, 1))
	writeTropical(t, buf, TropicalWeight(0))
	require.NoError(t, writeInt32(buf, dest))
}
