//go:build windows

package backing

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/joshuapare/bootalloc/mem"
)

// PageSize returns the OS page size.
func PageSize() mem.Size {
	return mem.Size(windows.Getpagesize())
}

func mapAnon(size int) ([]byte, func() error, error) {
	p, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
	cleanup := func() error {
		return windows.VirtualFree(p, 0, windows.MEM_RELEASE)
	}
	return data, cleanup, nil
}
