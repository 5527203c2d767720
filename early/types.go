package early

import "github.com/joshuapare/bootalloc/mem"

// Layout describes a byte allocation request.
type Layout struct {
	Size  mem.Size
	Align mem.Size // power of two; zero is treated as 1
}

// BaseAllocator is the lifecycle capability.
type BaseAllocator interface {
	// Init sets the managed region to [start, start+size). It may be called once.
	Init(start mem.Addr, size mem.Size) error

	// AddMemory would grow the managed region. The boot allocator's region is
	// fixed, so implementations in this package always return ErrNoMemory.
	AddMemory(start mem.Addr, size mem.Size) error
}

// ByteAllocator is the byte-granularity allocation capability.
type ByteAllocator interface {
	BaseAllocator

	// Alloc returns the address of size bytes aligned to l.Align.
	Alloc(l Layout) (mem.Addr, error)

	// Dealloc releases one byte allocation. addr and l are not checked
	// against the original request; callers must pass what Alloc was given.
	Dealloc(addr mem.Addr, l Layout) error

	TotalBytes() mem.Size
	UsedBytes() mem.Size
	AvailableBytes() mem.Size
}

// PageAllocator is the page-granularity allocation capability.
type PageAllocator interface {
	BaseAllocator

	// PageSize is the fixed allocation unit.
	PageSize() mem.Size

	// AllocPages returns the address of count contiguous pages aligned to alignPow2.
	AllocPages(count int, alignPow2 mem.Size) (mem.Addr, error)

	// DeallocPages returns pages to the allocator.
	DeallocPages(addr mem.Addr, count int) error

	TotalPages() int
	UsedPages() int
	AvailablePages() int
}

// Allocator combines the byte and page capabilities over one region.
type Allocator interface {
	ByteAllocator
	PageAllocator
	Stats() Stats
}
