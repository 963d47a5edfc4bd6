package fst

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstFst_ConvertEquivalent(t *testing.T) {
	v := buildCyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)

	assert.Equal(t, ConstFstType, c.FstType())
	assert.Equal(t, TropicalArcType, c.ArcType())
	requireEquivalent(t, v, c)
}

func TestConstFst_FileRoundTrip(t *testing.T) {
	v := buildAcyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ConstFstType, got.FstType())
	requireEquivalent(t, v, got)

	cf, ok := got.(*ConstFst)
	require.True(t, ok)
	assert.False(t, cf.Mapped())
	require.NoError(t, cf.Close())
}

func TestConstFst_MappedReadMatchesCopy(t *testing.T) {
	v := buildCyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)

	cfg := DefaultConfig()
	cfg.ReadMode = "map"
	withProcessConfig(t, cfg)

	got, err := Read(path)
	require.NoError(t, err)
	cf, ok := got.(*ConstFst)
	require.True(t, ok)
	assert.True(t, cf.Mapped())
	requireEquivalent(t, v, got)
	require.NoError(t, cf.Close())
	// Close is idempotent once the mapping is gone.
	require.NoError(t, cf.Close())
}

func TestConstFst_MapFallsBackOnStream(t *testing.T) {
	v := buildAcyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.WriteTo(&buf))

	opts := NewReadOptions("stream")
	opts.Mode = ReadModeMap
	got, err := ReadFrom(bytes.NewReader(buf.Bytes()), opts)
	require.NoError(t, err)
	cf, ok := got.(*ConstFst)
	require.True(t, ok)
	assert.False(t, cf.Mapped(), "non-file sources fall back to a copy")
	requireEquivalent(t, v, got)
}

func TestConstFst_ChecksumDetectsCorruption(t *testing.T) {
	v := buildAcyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a bit in the last arc record, leaving header and counts valid.
	data[len(data)-12] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Read(path)
	require.ErrorIs(t, err, ErrBadChecksum)
}

func TestConstFst_AlignedWrite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlignWrites = true
	withProcessConfig(t, cfg)

	v := buildAcyclicFst(t)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)

	got, err := Read(path)
	require.NoError(t, err)
	requireEquivalent(t, v, got)
}

func TestConstFst_EmptyAutomaton(t *testing.T) {
	v := NewVectorFst(TropicalArcType)
	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.NumStates())
	assert.Equal(t, NoStateID, c.Start())

	path := writeTempFst(t, c)
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.NumStates())
}

func TestConstFst_PropertiesSurviveRoundTrip(t *testing.T) {
	v := buildAcyclicFst(t)
	assert.True(t, Verify(v, Acyclic))

	c, err := Convert(v, ConstFstType)
	require.NoError(t, err)
	path := writeTempFst(t, c)
	got, err := Read(path)
	require.NoError(t, err)

	// The verified structural fact is already known after reload.
	props := got.Properties(PropAcyclic|PropCyclic, false)
	assert.True(t, props.Known(Acyclic))
	assert.True(t, props.Value(Acyclic))
}

func TestConstFst_ReadRejectsBadArcDestination(t *testing.T) {
	hdr := Header{
		FstType:   ConstFstType,
		ArcType:   TropicalArcType,
		Version:   constFileVersion,
		Start:     0,
		NumStates: 1,
		NumArcs:   1,
	}
	var buf bytes.Buffer
	require.NoError(t, hdr.Write(&buf, "crafted"))
	require.NoError(t, writeInt32(&buf, 0))
	require.NoError(t, writeByte(&buf, 0))
	writeTropical(t, &buf, TropicalWeight(0))
	require.NoError(t, writeInt32(&buf, 1))
	require.NoError(t, writeInt32(&buf, 1))
	require.NoError(t, writeInt32(&buf, 1))
	writeTropical(t, &buf, TropicalWeight(0))
	require.NoError(t, writeInt32(&buf, 7))

	_, err := ReadFrom(&buf, NewReadOptions("crafted"))
	require.ErrorIs(t, err, ErrReadFailed)
}
