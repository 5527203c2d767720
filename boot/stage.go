// Package boot hosts an early.EarlyAllocator over real memory for the
// duration of a boot stage.
//
// A Stage maps one region, hands out byte and page allocations from it as
// slices, and ends with Handoff, after which the successor allocator owns
// the region and the Stage refuses further work.
package boot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/internal/backing"
	"github.com/joshuapare/bootalloc/mem"
)

var (
	// ErrHandedOff indicates use of a Stage after Handoff.
	ErrHandedOff = errors.New("boot: stage already handed off")

	// ErrClosed indicates use of a Stage after Close.
	ErrClosed = errors.New("boot: stage closed")
)

// Stage is a mapped region managed by an EarlyAllocator. It is safe for
// concurrent use.
type Stage struct {
	region *backing.Region
	alloc  *early.Locked
	log    *slog.Logger

	// handedOff and closed are guarded by alloc's lock (read and written inside Do).
	handedOff bool
	closed    bool
}

// Open maps size bytes (rounded up to the OS page size) and initializes an
// allocator over them. opts may be nil.
func Open(size mem.Size, opts *Options) (*Stage, error) {
	o := opts.withDefaults()

	ea, err := early.New(o.PageSize)
	if err != nil {
		return nil, fmt.Errorf("boot: page size %d: %w", o.PageSize, err)
	}
	region, err := backing.Map(size)
	if err != nil {
		return nil, err
	}
	if err := ea.Init(region.Base(), region.Size()); err != nil {
		_ = region.Close()
		return nil, fmt.Errorf("boot: init region: %w", err)
	}

	s := &Stage{
		region: region,
		alloc:  early.NewLocked(ea),
		log:    o.Logger,
	}
	s.log.Info("boot stage opened",
		"base", region.Base(),
		"size", region.Size().String(),
		"page_size", o.PageSize.String(),
		"pages", ea.TotalPages())
	return s, nil
}

// Alloc returns a byte allocation as both its address and a slice over it.
func (s *Stage) Alloc(l early.Layout) (mem.Addr, []byte, error) {
	var (
		addr mem.Addr
		buf  []byte
	)
	err := s.alloc.Do(func(ea *early.EarlyAllocator) error {
		if err := s.checkOpen(); err != nil {
			return err
		}
		var err error
		if addr, err = ea.Alloc(l); err != nil {
			return err
		}
		buf, err = s.view(addr, l.Size)
		return err
	})
	if err != nil {
		s.logFailure("alloc", err, "size", uint64(l.Size), "align", uint64(l.Align))
		return 0, nil, err
	}
	s.log.Debug("alloc", "addr", addr, "size", uint64(l.Size), "align", uint64(l.Align))
	return addr, buf, nil
}

// Dealloc releases a byte allocation made by Alloc.
func (s *Stage) Dealloc(addr mem.Addr, l early.Layout) error {
	var reclaimed bool
	err := s.alloc.Do(func(ea *early.EarlyAllocator) error {
		if err := s.checkOpen(); err != nil {
			return err
		}
		if err := ea.Dealloc(addr, l); err != nil {
			return err
		}
		reclaimed = ea.Outstanding() == 0
		return nil
	})
	if err != nil {
		s.logFailure("dealloc", err, "addr", addr)
		return err
	}
	if reclaimed {
		s.log.Debug("byte area reclaimed")
	}
	return nil
}

// AllocPages returns count pages as both their address and a slice over them.
func (s *Stage) AllocPages(count int, alignPow2 mem.Size) (mem.Addr, []byte, error) {
	var (
		addr mem.Addr
		buf  []byte
	)
	err := s.alloc.Do(func(ea *early.EarlyAllocator) error {
		if err := s.checkOpen(); err != nil {
			return err
		}
		var err error
		if addr, err = ea.AllocPages(count, alignPow2); err != nil {
			return err
		}
		buf, err = s.view(addr, ea.PageSize()*mem.Size(count))
		return err
	})
	if err != nil {
		s.logFailure("alloc_pages", err, "count", count, "align", uint64(alignPow2))
		return 0, nil, err
	}
	s.log.Debug("alloc_pages", "addr", addr, "count", count, "align", uint64(alignPow2))
	return addr, buf, nil
}

// DeallocPages always fails: pages handed out during boot are permanent.
func (s *Stage) DeallocPages(addr mem.Addr, count int) error {
	err := s.alloc.DeallocPages(addr, count)
	s.logFailure("dealloc_pages", err, "addr", addr, "count", count)
	return err
}

// AddMemory always fails: a stage's region is fixed when it is opened.
func (s *Stage) AddMemory(start mem.Addr, size mem.Size) error {
	err := s.alloc.AddMemory(start, size)
	s.logFailure("add_memory", err, "start", start, "size", uint64(size))
	return err
}

// Stats returns a snapshot of the allocator.
func (s *Stage) Stats() early.Stats {
	return s.alloc.Stats()
}

// Handoff ends the boot stage and returns the final allocator state for the
// successor allocator. Later allocation calls return ErrHandedOff. The mapping
// stays valid until Close.
func (s *Stage) Handoff() (early.Stats, error) {
	var st early.Stats
	err := s.alloc.Do(func(ea *early.EarlyAllocator) error {
		if err := s.checkOpen(); err != nil {
			return err
		}
		s.handedOff = true
		st = ea.Stats()
		return nil
	})
	if err != nil {
		return early.Stats{}, err
	}
	s.log.Info("boot stage handed off",
		"outstanding", st.Outstanding,
		"used_bytes", uint64(st.UsedBytes),
		"used_pages", st.UsedPages)
	return st, nil
}

// Close releases the mapped region. Slices returned earlier become invalid and
// every later call that needs the region returns ErrClosed.
func (s *Stage) Close() error {
	return s.alloc.Do(func(*early.EarlyAllocator) error {
		if s.closed {
			return nil
		}
		s.closed = true
		return s.region.Close()
	})
}

// view returns the mapped bytes of an allocation. Callers hold alloc's lock and
// have checked the stage is open, so the mapping cannot go away underneath.
func (s *Stage) view(addr mem.Addr, size mem.Size) ([]byte, error) {
	buf, err := s.region.Bytes(addr, size)
	if err != nil {
		return nil, fmt.Errorf("boot: view of %v: %w", addr, err)
	}
	return buf, nil
}

// checkOpen must be called with alloc's lock held.
func (s *Stage) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	if s.handedOff {
		return ErrHandedOff
	}
	return nil
}

func (s *Stage) logFailure(op string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, early.ErrNoMemory) {
		s.log.Warn(op+" exhausted region", args...)
		return
	}
	s.log.Error(op+" failed", args...)
}
