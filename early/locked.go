package early

import (
	"sync"

	"github.com/joshuapare/bootalloc/mem"
)

// Locked serializes every call to an EarlyAllocator behind a mutex. Use it once
// more than one goroutine (or boot CPU) can reach the allocator.
type Locked struct {
	mu sync.Mutex
	ea *EarlyAllocator
}

// NewLocked wraps ea. ea must not be used directly afterwards.
func NewLocked(ea *EarlyAllocator) *Locked {
	return &Locked{ea: ea}
}

// Do runs fn with the lock held, for sequences that must not interleave with
// other callers.
func (l *Locked) Do(fn func(ea *EarlyAllocator) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.ea)
}

func (l *Locked) Init(start mem.Addr, size mem.Size) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.Init(start, size)
}

func (l *Locked) AddMemory(start mem.Addr, size mem.Size) error {
	return l.ea.AddMemory(start, size)
}

func (l *Locked) Alloc(layout Layout) (mem.Addr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.Alloc(layout)
}

func (l *Locked) Dealloc(addr mem.Addr, layout Layout) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.Dealloc(addr, layout)
}

func (l *Locked) TotalBytes() mem.Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.TotalBytes()
}

func (l *Locked) UsedBytes() mem.Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.UsedBytes()
}

func (l *Locked) AvailableBytes() mem.Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.AvailableBytes()
}

// PageSize locks too: Init fills in the default page size of a zero-value allocator.
func (l *Locked) PageSize() mem.Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.PageSize()
}

func (l *Locked) AllocPages(count int, alignPow2 mem.Size) (mem.Addr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.AllocPages(count, alignPow2)
}

func (l *Locked) DeallocPages(addr mem.Addr, count int) error {
	return l.ea.DeallocPages(addr, count)
}

func (l *Locked) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.TotalPages()
}

func (l *Locked) UsedPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.UsedPages()
}

func (l *Locked) AvailablePages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.AvailablePages()
}

func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ea.Stats()
}

var _ Allocator = (*Locked)(nil)
