package fst

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/multierr"
)

// mappedFile pins a read-only mapping of an automaton file for the
// lifetime of the encoding that borrowed it. The file descriptor is
// kept open alongside the mapping and both are released together.
type mappedFile struct {
	f *os.File
	m mmap.MMap
}

func mapFile(f *os.File) (*mappedFile, error) {
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return &mappedFile{f: f, m: m}, nil
}

func (mf *mappedFile) bytes() []byte { return mf.m }

// Close unmaps and closes the underlying file, reporting both failures
// when both occur.
func (mf *mappedFile) Close() error {
	var err error
	if mf.m != nil {
		err = multierr.Append(err, mf.m.Unmap())
		mf.m = nil
	}
	if mf.f != nil {
		err = multierr.Append(err, mf.f.Close())
		mf.f = nil
	}
	return err
}
