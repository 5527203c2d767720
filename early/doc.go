// Package early provides the allocator used during boot, before the page-table
// aware allocators are available.
//
// # Overview
//
// EarlyAllocator manages one fixed region and serves two kinds of request
// from opposite ends of it:
//
//	[ bytes-used | avail-area | pages-used ]
//	|            | -->    <-- |            |
//	start     bytePos      pagePos        end
//
//   - Byte allocations bump bytePos forward, aligned to the request.
//   - Page allocations bump pagePos backward in PageSize units, with the block
//     start aligned down to the requested power of two.
//
// A request that would make the cursors cross fails with ErrNoMemory and
// changes nothing.
//
// # Reclamation
//
// The byte side keeps a single counter of outstanding allocations and no
// per-allocation records. Dealloc decrements the counter; when it reaches
// zero the whole byte area is reclaimed by resetting bytePos to start. Until
// then, freed space is not reused. A caller that leaks one allocation keeps
// the byte area from ever being reclaimed.
//
// The page side is never reclaimed. DeallocPages returns ErrUnsupported.
//
// # Lifecycle
//
//	ea, err := early.New(early.DefaultPageSize)
//	if err != nil {
//	    return err
//	}
//	if err := ea.Init(start, size); err != nil {
//	    return err
//	}
//
//	obj, err := ea.Alloc(early.Layout{Size: 64, Align: 8})
//	pt, err := ea.AllocPages(1, early.DefaultPageSize)
//
// The region cannot grow after Init: AddMemory always returns ErrNoMemory.
// Before Init every allocation call returns ErrUninitialized.
//
// # Thread Safety
//
// EarlyAllocator is not thread-safe. Wrap it in Locked, or synchronize
// externally, once more than one caller can reach it.
//
// # Related Packages
//
//   - github.com/joshuapare/bootalloc/mem: Addr and Size arithmetic
//   - github.com/joshuapare/bootalloc/boot: runs an EarlyAllocator over mapped memory
package early
