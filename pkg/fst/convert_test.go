package fst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFstTypes = []string{VectorFstType, CompactFstType, ConstFstType, ILabelLookAheadFstType}

func TestConvert_Idempotent(t *testing.T) {
	v := buildCyclicFst(t)
	for _, typ := range allFstTypes {
		t.Run(typ, func(t *testing.T) {
			first, err := Convert(v, typ)
			require.NoError(t, err)
			second, err := Convert(first, first.FstType())
			require.NoError(t, err)
			assert.Equal(t, typ, second.FstType())
			requireEquivalent(t, first, second)
		})
	}
}

func TestConvert_AllPairsEquivalent(t *testing.T) {
	v := buildCyclicFst(t)
	for _, from := range allFstTypes {
		for _, to := range allFstTypes {
			t.Run(from+"_to_"+to, func(t *testing.T) {
				src, err := Convert(v, from)
				require.NoError(t, err)
				dst, err := Convert(src, to)
				require.NoError(t, err)
				assert.Equal(t, to, dst.FstType())
				requireEquivalent(t, v, dst)
			})
		}
	}
}

func TestConvert_UnknownType(t *testing.T) {
	v := buildAcyclicFst(t)
	got, err := Convert(v, "holographic")
	require.ErrorIs(t, err, ErrUnknownFstType)
	assert.Nil(t, got)
}

func TestConvert_CarriesStructuralProperties(t *testing.T) {
	v := buildAcyclicFst(t)
	assert.True(t, Verify(v, Acyclic))

	for _, typ := range allFstTypes {
		t.Run(typ, func(t *testing.T) {
			dst, err := Convert(v, typ)
			require.NoError(t, err)
			props := dst.Properties(PropAcyclic|PropCyclic, false)
			assert.True(t, props.Known(Acyclic))
			assert.True(t, props.Value(Acyclic))
		})
	}
}

func TestConvert_CarriesSymbols(t *testing.T) {
	v := buildAcyclicFst(t)
	isyms := NewSymbolTable("inputs")
	isyms.AddSymbol("<eps>")
	v.SetInputSymbols(isyms)

	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	assert.Same(t, isyms, c.InputSymbols())
	assert.Nil(t, c.OutputSymbols())
}

func TestConvert_ReadBackDifferentType(t *testing.T) {
	// Write as const, read, convert to vector, compare with the
	// original: the fstconvert tool's whole pipeline.
	v := buildAcyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)

	got, err := Read(path)
	require.NoError(t, err)
	back, err := Convert(got, VectorFstType)
	require.NoError(t, err)
	assert.Equal(t, VectorFstType, back.FstType())
	requireEquivalent(t, v, back)
}
