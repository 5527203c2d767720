package early

import (
	"fmt"

	"github.com/joshuapare/bootalloc/mem"
)

// Stats is a point-in-time copy of the allocator's cursors and the figures
// derived from them.
type Stats struct {
	Start       mem.Addr `json:"start"`
	End         mem.Addr `json:"end"`
	BytePos     mem.Addr `json:"byte_pos"`
	PagePos     mem.Addr `json:"page_pos"`
	Outstanding uint64   `json:"outstanding"`
	PageSize    mem.Size `json:"page_size"`

	TotalBytes     mem.Size `json:"total_bytes"`
	UsedBytes      mem.Size `json:"used_bytes"`
	AvailableBytes mem.Size `json:"available_bytes"`
	TotalPages     int      `json:"total_pages"`
	UsedPages      int      `json:"used_pages"`
	AvailablePages int      `json:"available_pages"`
}

// Stats returns a snapshot of the allocator state.
func (ea *EarlyAllocator) Stats() Stats {
	return Stats{
		Start:          ea.start,
		End:            ea.end,
		BytePos:        ea.bytePos,
		PagePos:        ea.pagePos,
		Outstanding:    ea.byteCount,
		PageSize:       ea.pageSize,
		TotalBytes:     ea.TotalBytes(),
		UsedBytes:      ea.UsedBytes(),
		AvailableBytes: ea.AvailableBytes(),
		TotalPages:     ea.TotalPages(),
		UsedPages:      ea.UsedPages(),
		AvailablePages: ea.AvailablePages(),
	}
}

// Check verifies the region invariants:
//   - start <= bytePos <= pagePos <= end
//   - no outstanding byte allocation implies bytePos == start
//   - used + available bytes never exceed the region
func (s Stats) Check() error {
	if s.Start > s.BytePos || s.BytePos > s.PagePos || s.PagePos > s.End {
		return &InvariantError{fmt.Sprintf("cursor order: start=%v bytePos=%v pagePos=%v end=%v",
			s.Start, s.BytePos, s.PagePos, s.End)}
	}
	if s.Outstanding == 0 && s.BytePos != s.Start {
		return &InvariantError{fmt.Sprintf("no outstanding allocations but bytePos=%v != start=%v",
			s.BytePos, s.Start)}
	}
	if s.UsedBytes+s.AvailableBytes > s.TotalBytes {
		return &InvariantError{fmt.Sprintf("used %d + available %d exceeds total %d",
			s.UsedBytes, s.AvailableBytes, s.TotalBytes)}
	}
	return nil
}
