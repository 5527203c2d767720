package mem

import "fmt"

// Addr is an address inside a managed region. It is a plain number: nothing in
// this package dereferences it. Turning an Addr into usable memory is the job of
// internal/backing.
type Addr uintptr

// String renders the address in hex, e.g. "0x1010".
func (a Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// MarshalText encodes the address in the same hex form as String.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// AlignUp rounds a up to the next multiple of align, which must be a power of two.
// ok is false when rounding would wrap past the top of the address space.
//
// Example:
//
//	Addr(0x1001).AlignUp(8)      = 0x1008, true
//	Addr(0x1000).AlignUp(0x1000) = 0x1000, true
func (a Addr) AlignUp(align Size) (Addr, bool) {
	r, ok := alignUp(uintptr(a), uintptr(align))
	return Addr(r), ok
}

// AlignDown rounds a down to a multiple of align, which must be a power of two.
//
// Example:
//
//	Addr(0x2fff).AlignDown(0x1000) = 0x2000
func (a Addr) AlignDown(align Size) Addr {
	return Addr(alignDown(uintptr(a), uintptr(align)))
}

// IsAligned reports whether a is a multiple of align.
func (a Addr) IsAligned(align Size) bool {
	return uintptr(a)&(uintptr(align)-1) == 0
}

// Add returns a+n. ok is false if the sum overflows.
func (a Addr) Add(n Size) (Addr, bool) {
	r := a + Addr(n)
	return r, r >= a
}

// Sub returns a-n. ok is false if n is larger than a.
func (a Addr) Sub(n Size) (Addr, bool) {
	if Addr(n) > a {
		return 0, false
	}
	return a - Addr(n), true
}

// Diff returns the distance from b up to a. It returns 0 when b is above a.
func (a Addr) Diff(b Addr) Size {
	if b > a {
		return 0
	}
	return Size(a - b)
}
