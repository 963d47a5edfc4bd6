package fst

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFanOutFst has one state with several arcs sharing labels, so
// lookups have to handle duplicates.
func buildFanOutFst(t *testing.T) *VectorFst {
	t.Helper()
	v := NewVectorFst(TropicalArcType)
	s0 := v.AddState()
	s1 := v.AddState()
	require.NoError(t, v.SetStart(s0))
	labels := []Label{9, 3, 7, 3, 1, 7, 3}
	for i, l := range labels {
		require.NoError(t, v.AddArc(s0, Arc{
			ILabel:    l,
			OLabel:    Label(i),
			Weight:    TropicalWeight(float32(i)),
			NextState: s1,
		}))
	}
	require.NoError(t, v.SetFinal(s1, TropicalWeight(0)))
	return v
}

func TestLookAheadFst_ConvertEquivalent(t *testing.T) {
	v := buildFanOutFst(t)
	l, err := Convert(v, ILabelLookAheadFstType)
	require.NoError(t, err)

	assert.Equal(t, ILabelLookAheadFstType, l.FstType())
	// Stored arc order is untouched by the index.
	requireEquivalent(t, v, l)
}

func TestLookAheadFst_LookupMatchesScan(t *testing.T) {
	v := buildFanOutFst(t)
	converted, err := Convert(v, ILabelLookAheadFstType)
	require.NoError(t, err)
	l := converted.(*ILabelLookAheadFst)

	for _, label := range []Label{1, 3, 7, 9, 5, 0} {
		var scan []Arc
		for a := range v.Arcs(0) {
			if a.ILabel == label {
				scan = append(scan, a)
			}
		}
		var indexed []Arc
		for a := range l.LookupArcs(0, label) {
			indexed = append(indexed, a)
		}
		require.Len(t, indexed, len(scan), "label %d", label)
		for i := range scan {
			assert.True(t, scan[i].Equal(indexed[i]), "label %d arc %d", label, i)
		}
	}
}

func TestLookAheadFst_LookAhead(t *testing.T) {
	v := buildFanOutFst(t)
	converted, err := Convert(v, ILabelLookAheadFstType)
	require.NoError(t, err)
	l := converted.(*ILabelLookAheadFst)

	assert.True(t, l.LookAhead(0, 3))
	assert.True(t, l.LookAhead(0, 9))
	assert.False(t, l.LookAhead(0, 5))
	assert.False(t, l.LookAhead(1, 3))
	assert.False(t, l.LookAhead(42, 3))
}

func TestLookAheadFst_FileRoundTrip(t *testing.T) {
	v := buildFanOutFst(t)
	l, err := Convert(v, ILabelLookAheadFstType)
	require.NoError(t, err)
	path := writeTempFst(t, l)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ILabelLookAheadFstType, got.FstType())
	requireEquivalent(t, v, got)

	// The index is rebuilt on read.
	reloaded := got.(*ILabelLookAheadFst)
	assert.True(t, reloaded.LookAhead(0, 7))
	assert.False(t, reloaded.LookAhead(0, 8))
}

func TestILabelLookAheadFst_ReadRejectsBadArcDestination(t *testing.T) {
	hdr := Header{
		FstType:   ILabelLookAheadFstType,
		ArcType:   TropicalArcType,
		Version:   lookAheadFileVersion,
		Start:     0,
		NumStates: 1,
		NumArcs:   1,
	}
	var buf bytes.Buffer
	require.NoError(t, hdr.Write(&buf, "crafted"))
	writeFlatBody(t, &buf, -2)

	_, err := ReadFrom(&buf, NewReadOptions("crafted"))
	require.ErrorIs(t, err, ErrReadFailed)
}
