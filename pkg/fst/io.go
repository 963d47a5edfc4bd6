package fst

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Fixed-width, little-endian codec helpers shared by the header and the
// concrete encodings. Strings are int32-length-prefixed. Every reader
// uses io.ReadFull so a short stream surfaces as an error instead of a
// silently truncated value.

const maxStringLen = 1 << 20

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeInt32(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readInt32(r)
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxStringLen {
		return "", fmt.Errorf("string length %d out of range", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// countingWriter tracks the number of bytes written so alignment padding
// can be computed relative to the start of the stream.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// writePadding aligns the body start to boundary. The pad is
// self-describing on the wire: an int32 length followed by that many
// zero bytes, so the read path never needs to track absolute offsets.
func (cw *countingWriter) writePadding(boundary int64) error {
	// 4 accounts for the length field itself.
	pad := (boundary - (cw.n+4)%boundary) % boundary
	if err := writeInt32(cw, int32(pad)); err != nil {
		return err
	}
	if pad == 0 {
		return nil
	}
	_, err := cw.Write(make([]byte, pad))
	return err
}

// skipPadding consumes a pad written by writePadding.
func skipPadding(r io.Reader) error {
	pad, err := readInt32(r)
	if err != nil {
		return err
	}
	if pad < 0 || int64(pad) >= bodyAlignment {
		return fmt.Errorf("padding length %d out of range", pad)
	}
	_, err = io.CopyN(io.Discard, r, int64(pad))
	return err
}
