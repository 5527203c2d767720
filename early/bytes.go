package early

import "github.com/joshuapare/bootalloc/mem"

// Alloc bump-allocates l.Size bytes aligned to l.Align from the front of the
// free area. On failure no cursor or counter changes.
func (ea *EarlyAllocator) Alloc(l Layout) (mem.Addr, error) {
	if !ea.ready {
		return 0, ErrUninitialized
	}
	align := l.Align
	if align == 0 {
		align = 1
	}
	if !mem.IsPowerOfTwo(uintptr(align)) {
		return 0, ErrInvalidParam
	}

	addr, ok := ea.bytePos.AlignUp(align)
	if !ok {
		return 0, ErrNoMemory
	}
	next, ok := addr.Add(l.Size)
	if !ok || next > ea.pagePos {
		return 0, ErrNoMemory
	}

	ea.bytePos = next
	ea.byteCount++
	return addr, nil
}

// Dealloc drops one outstanding byte allocation. Space is not reclaimed until
// the count reaches zero, at which point the entire byte area is.
//
// addr and l are accepted for symmetry with Alloc and are not inspected.
func (ea *EarlyAllocator) Dealloc(addr mem.Addr, l Layout) error {
	if !ea.ready {
		return ErrUninitialized
	}
	if ea.byteCount == 0 {
		return ErrNoOutstanding
	}

	ea.byteCount--
	if ea.byteCount == 0 {
		ea.bytePos = ea.start
	}
	return nil
}

// TotalBytes returns the size of the whole managed region.
func (ea *EarlyAllocator) TotalBytes() mem.Size {
	return ea.end.Diff(ea.start)
}

// UsedBytes returns how far the byte cursor has advanced, padding included.
func (ea *EarlyAllocator) UsedBytes() mem.Size {
	return ea.bytePos.Diff(ea.start)
}

// AvailableBytes returns the gap between the byte and page cursors.
func (ea *EarlyAllocator) AvailableBytes() mem.Size {
	return ea.pagePos.Diff(ea.bytePos)
}

// Outstanding returns the number of byte allocations not yet deallocated.
func (ea *EarlyAllocator) Outstanding() uint64 {
	return ea.byteCount
}
