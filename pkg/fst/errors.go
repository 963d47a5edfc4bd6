package fst

import "errors"

var (
	ErrBadHeader      = errors.New("bad FST header, magic number not matched")
	ErrReadFailed     = errors.New("FST read failed, stream exhausted or corrupt")
	ErrUnknownFstType = errors.New("unknown FST type")
	ErrUnknownWeight  = errors.New("unknown weight type")
	ErrTypeMismatch   = errors.New("FST type does not match expected type")
	ErrNoSuchState    = errors.New("state id out of range")
	ErrBadChecksum    = errors.New("body checksum mismatch, the data may be corrupted")
	ErrNotSeekable    = errors.New("rewind requested on a non-seekable stream")
	ErrBadStateOrder  = errors.New("state order is not a permutation")
)
