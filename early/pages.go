package early

import "github.com/joshuapare/bootalloc/mem"

// PageSize returns the page granularity.
func (ea *EarlyAllocator) PageSize() mem.Size {
	return ea.pageSize
}

// AllocPages carves count pages off the back of the free area. The start of
// the block is aligned down to alignPow2, so an alignment larger than the page
// size may consume more than count pages.
func (ea *EarlyAllocator) AllocPages(count int, alignPow2 mem.Size) (mem.Addr, error) {
	if !ea.ready {
		return 0, ErrUninitialized
	}
	if count < 0 || !mem.IsPowerOfTwo(uintptr(alignPow2)) {
		return 0, ErrInvalidParam
	}

	size, ok := ea.pageSize.Mul(uintptr(count))
	if !ok {
		return 0, ErrNoMemory
	}
	addr, ok := ea.pagePos.Sub(size)
	if !ok {
		return 0, ErrNoMemory
	}
	addr = addr.AlignDown(alignPow2)
	if addr < ea.bytePos {
		return 0, ErrNoMemory
	}

	ea.pagePos = addr
	return addr, nil
}

// DeallocPages always returns ErrUnsupported. Pages handed out during boot
// stay allocated for the lifetime of the allocator; a caller reaching this is
// a bug upstream and gets an error rather than a silent no-op.
func (ea *EarlyAllocator) DeallocPages(addr mem.Addr, count int) error {
	return ErrUnsupported
}

// TotalPages returns how many whole pages fit in the managed region.
func (ea *EarlyAllocator) TotalPages() int {
	if !ea.ready {
		return 0
	}
	return int(ea.end.Diff(ea.start) / ea.pageSize)
}

// UsedPages returns how many pages the page area spans, alignment waste included.
func (ea *EarlyAllocator) UsedPages() int {
	if !ea.ready {
		return 0
	}
	return int(ea.end.Diff(ea.pagePos) / ea.pageSize)
}

// AvailablePages returns how many whole pages fit between the cursors.
func (ea *EarlyAllocator) AvailablePages() int {
	if !ea.ready {
		return 0
	}
	return int(ea.pagePos.Diff(ea.bytePos) / ea.pageSize)
}
