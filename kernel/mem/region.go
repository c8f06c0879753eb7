package mem

import (
	"encoding/binary"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
)

var errOutOfRange = &kernel.Error{Module: "mem", Message: "access outside memory region", Errno: kernel.EINVAL}

// Region is a block of little-endian RAM mapped at Base. All accesses are
// bounds checked.
type Region struct {
	Base Addr
	data []byte
}

// NewRegion allocates a zeroed region of size bytes mapped at base.
func NewRegion(base Addr, size Size) *Region {
	return &Region{Base: base, data: make([]byte, size)}
}

// Size returns the region length in bytes.
func (r *Region) Size() Size {
	return Size(len(r.data))
}

// Contains reports whether [at, at+n) lies inside the region.
func (r *Region) Contains(at Addr, n Size) bool {
	if at < r.Base {
		return false
	}
	off := uint64(at - r.Base)
	return off+uint64(n) <= uint64(len(r.data))
}

// Bytes returns the n bytes at address at. The slice aliases the region.
func (r *Region) Bytes(at Addr, n Size) ([]byte, *kernel.Error) {
	if !r.Contains(at, n) {
		return nil, errOutOfRange
	}
	off := at - r.Base
	return r.data[off : off+Addr(n)], nil
}

// Read32 loads the word at address at.
func (r *Region) Read32(at Addr) (uint32, *kernel.Error) {
	b, err := r.Bytes(at, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Write32 stores v at address at.
func (r *Region) Write32(at Addr, v uint32) *kernel.Error {
	b, err := r.Bytes(at, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}
