// Package backing provides the memory behind a boot allocator region.
//
// It is the one place where mem.Addr values are turned into something that can
// be read and written. Everything else in the module treats addresses as numbers.
package backing

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/bootalloc/mem"
)

var (
	// ErrOutOfRange indicates an address range that leaves the mapping.
	ErrOutOfRange = errors.New("backing: range outside region")

	// ErrClosed indicates use of a region after Close.
	ErrClosed = errors.New("backing: region closed")

	// ErrZeroSize indicates a request to map zero bytes.
	ErrZeroSize = errors.New("backing: size must be greater than 0")
)

// Region is a contiguous read/write mapping.
type Region struct {
	data    []byte
	base    mem.Addr
	release func() error
}

// Map returns a zeroed read/write region of at least size bytes, rounded up to
// the OS page size. The base address is OS-page aligned.
func Map(size mem.Size) (*Region, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	rounded, ok := mem.Addr(size).AlignUp(PageSize())
	if !ok {
		return nil, fmt.Errorf("backing: size %d too large", size)
	}
	data, release, err := mapAnon(int(rounded))
	if err != nil {
		return nil, fmt.Errorf("backing: map %s: %w", mem.Size(rounded), err)
	}
	return newRegion(data, release), nil
}

func newRegion(data []byte, release func() error) *Region {
	return &Region{
		data:    data,
		base:    mem.Addr(uintptr(unsafe.Pointer(unsafe.SliceData(data)))),
		release: release,
	}
}

// Base returns the address of the first byte of the region.
func (r *Region) Base() mem.Addr {
	return r.base
}

// Size returns the length of the region.
func (r *Region) Size() mem.Size {
	return mem.Size(len(r.data))
}

// Bytes returns the n bytes starting at a. The slice aliases the region and its
// capacity is clamped to n, so appends cannot spill into a neighbour.
func (r *Region) Bytes(a mem.Addr, n mem.Size) ([]byte, error) {
	if r.data == nil {
		return nil, ErrClosed
	}
	if a < r.base {
		return nil, ErrOutOfRange
	}
	off := uintptr(a.Diff(r.base))
	if off > uintptr(len(r.data)) || uintptr(n) > uintptr(len(r.data))-off {
		return nil, ErrOutOfRange
	}
	return r.data[off : off+uintptr(n) : off+uintptr(n)], nil
}

// Close releases the mapping. Slices returned by Bytes must not be used
// afterwards. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	r.data = nil
	release := r.release
	r.release = nil
	if release == nil {
		return nil
	}
	return release()
}
