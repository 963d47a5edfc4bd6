package fst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadModeFromString(t *testing.T) {
	tests := []struct {
		mode string
		want FileReadMode
	}{
		{"read", ReadModeCopy},
		{"map", ReadModeMap},
		{"bogus", ReadModeCopy},
		{"", ReadModeCopy},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadModeFromString(tt.mode))
		})
	}
}

func TestNewReadOptions_Defaults(t *testing.T) {
	opts := NewReadOptions("some.fst")
	assert.Equal(t, "some.fst", opts.Source)
	assert.Nil(t, opts.Header)
	assert.True(t, opts.ReadISymbols)
	assert.True(t, opts.ReadOSymbols)
	assert.Equal(t, ReadModeCopy, opts.Mode)
}

func TestNewReadOptions_ModeFromProcessConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadMode = "map"
	withProcessConfig(t, cfg)

	opts := NewReadOptions("some.fst")
	assert.Equal(t, ReadModeMap, opts.Mode)
}

func TestNewReadOptionsWithHeader(t *testing.T) {
	hdr := testHeader()
	opts := NewReadOptionsWithHeader("some.fst", &hdr)
	require.NotNil(t, opts.Header)
	assert.Equal(t, "vector", opts.Header.FstType)
}

func TestReadOptions_DebugString(t *testing.T) {
	opts := NewReadOptions("some.fst")
	assert.Equal(t,
		`source: "some.fst" mode: "READ" read_isymbols: true read_osymbols: true header: null isymbols: null osymbols: null`,
		opts.DebugString())

	hdr := testHeader()
	opts = NewReadOptionsWithHeader("other.fst", &hdr)
	opts.ISymbols = NewSymbolTable("syms")
	assert.Contains(t, opts.DebugString(), `header: set`)
	assert.Contains(t, opts.DebugString(), `isymbols: set`)
}
