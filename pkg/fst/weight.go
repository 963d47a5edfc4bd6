package fst

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Weight is an opaque semiring value. The runtime core only needs a
// weight to identify its type, serialize into a fixed number of bytes
// and compare for equality. Semiring arithmetic lives outside this
// package.
type Weight interface {
	// Type names the weight's arc type, e.g. "standard".
	Type() string

	// ByteLen is the fixed encoded size of this weight type.
	ByteLen() int

	// Encode writes exactly ByteLen bytes into buf.
	Encode(buf []byte)

	// Equal reports whether the other weight has the same type and value.
	Equal(other Weight) bool
}

// weightCodec decodes weights of a single registered arc type.
type weightCodec struct {
	size   int
	decode func(buf []byte) Weight
}

var (
	weightMu    sync.RWMutex
	weightCodes = make(map[string]weightCodec)
)

// RegisterWeight makes an arc type readable. size is the fixed encoded
// width; decode reconstructs a weight from exactly size bytes.
// Registration of a duplicate arc type panics: it is a program bug, not
// a runtime condition.
func RegisterWeight(arcType string, size int, decode func(buf []byte) Weight) {
	weightMu.Lock()
	defer weightMu.Unlock()
	if _, ok := weightCodes[arcType]; ok {
		panic("fst: weight type registered twice: " + arcType)
	}
	weightCodes[arcType] = weightCodec{size: size, decode: decode}
}

func lookupWeight(arcType string) (weightCodec, error) {
	weightMu.RLock()
	defer weightMu.RUnlock()
	wc, ok := weightCodes[arcType]
	if !ok {
		return weightCodec{}, fmt.Errorf("%w: %q", ErrUnknownWeight, arcType)
	}
	return wc, nil
}

// TropicalArcType is the arc type of TropicalWeight, the stock weight
// shipped with the library.
const TropicalArcType = "standard"

// TropicalWeight is a float32 weight over the tropical semiring. Only
// its representation matters here; min/plus arithmetic belongs to the
// algorithm packages built on top of this core.
type TropicalWeight float32

func (TropicalWeight) Type() string { return TropicalArcType }

func (TropicalWeight) ByteLen() int { return 4 }

func (w TropicalWeight) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(w)))
}

// Equal compares bit patterns so that infinities and NaN payloads
// survive a serialization round trip unchanged.
func (w TropicalWeight) Equal(other Weight) bool {
	o, ok := other.(TropicalWeight)
	if !ok {
		return false
	}
	return math.Float32bits(float32(w)) == math.Float32bits(float32(o))
}

func (w TropicalWeight) String() string {
	return fmt.Sprintf("%g", float32(w))
}

func decodeTropical(buf []byte) Weight {
	return TropicalWeight(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
}

func init() {
	RegisterWeight(TropicalArcType, 4, decodeTropical)
}
