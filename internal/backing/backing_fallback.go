//go:build !unix && !windows

package backing

import (
	"unsafe"

	"github.com/joshuapare/bootalloc/mem"
)

const fallbackPageSize = 4 * mem.KiB

// PageSize returns the page size used for heap-backed regions.
func PageSize() mem.Size {
	return fallbackPageSize
}

// mapAnon carves a page-aligned window out of a heap slice when no mmap is available.
func mapAnon(size int) ([]byte, func() error, error) {
	buf := make([]byte, size+int(fallbackPageSize))
	base := mem.Addr(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	aligned, _ := base.AlignUp(fallbackPageSize)
	off := int(aligned.Diff(base))
	return buf[off : off+size : off+size], func() error { return nil }, nil
}
