package early

import (
	"github.com/joshuapare/bootalloc/mem"
)

// DefaultPageSize is the page granularity used by boot.Open when none is given.
const DefaultPageSize = 4 * mem.KiB

// EarlyAllocator is a double-ended bump allocator over one fixed region.
// Byte allocations grow forward from start, page allocations grow backward
// from end, and the two cursors never cross:
//
//	[ bytes-used | avail-area | pages-used ]
//	|            | -->    <-- |            |
//	start     bytePos      pagePos        end
//
// The byte area keeps only a count of outstanding allocations. When the count
// returns to zero the whole byte area is reclaimed at once. The page area is
// never reclaimed.
type EarlyAllocator struct {
	start mem.Addr
	end   mem.Addr

	// bytePos is the next free address for byte allocations. Only moves
	// forward, except for the reset to start when byteCount drops to zero.
	bytePos mem.Addr

	// pagePos is the lowest address handed out to the page area. Only moves backward.
	pagePos mem.Addr

	byteCount uint64
	pageSize  mem.Size
	ready     bool
}

// New returns an uninitialized allocator with the given page granularity.
// pageSize must be a power of two.
func New(pageSize mem.Size) (*EarlyAllocator, error) {
	if !mem.IsPowerOfTwo(uintptr(pageSize)) {
		return nil, ErrInvalidParam
	}
	return &EarlyAllocator{pageSize: pageSize}, nil
}

// Init sets the managed region to [start, start+size) and moves the allocator
// to its operating state. A second call returns ErrAlreadyInitialized.
func (ea *EarlyAllocator) Init(start mem.Addr, size mem.Size) error {
	if ea.ready {
		return ErrAlreadyInitialized
	}
	if ea.pageSize == 0 {
		// Zero value, not built by New.
		ea.pageSize = DefaultPageSize
	}
	end, ok := start.Add(size)
	if !ok {
		return ErrInvalidParam
	}

	ea.start = start
	ea.end = end
	ea.bytePos = start
	ea.pagePos = end
	ea.byteCount = 0
	ea.ready = true
	return nil
}

// AddMemory always fails with ErrNoMemory. The region is fixed at Init; callers
// needing more memory must wait for the allocator that replaces this one.
func (ea *EarlyAllocator) AddMemory(start mem.Addr, size mem.Size) error {
	return ErrNoMemory
}

// Initialized reports whether Init has succeeded.
func (ea *EarlyAllocator) Initialized() bool {
	return ea.ready
}

// Compile-time interface check
var _ Allocator = (*EarlyAllocator)(nil)
