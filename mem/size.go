package mem

import (
	"fmt"
	"math/bits"

	"github.com/dustin/go-humanize"
)

// Size is a length in bytes.
type Size uintptr

// Common sizes.
const (
	Byte Size = 1
	KiB       = 1024 * Byte
	MiB       = 1024 * KiB
	GiB       = 1024 * MiB
)

// String renders the size with binary units, e.g. "8.0 KiB".
func (s Size) String() string {
	return humanize.IBytes(uint64(s))
}

// Mul returns s*n. ok is false if the product overflows.
func (s Size) Mul(n uintptr) (Size, bool) {
	hi, lo := bits.Mul(uint(s), uint(n))
	if hi != 0 {
		return 0, false
	}
	return Size(lo), true
}

// ParseSize parses a human readable size such as "16", "8KiB" or "2 MB".
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("mem: parse size %q: %w", s, err)
	}
	if uint64(Size(n)) != n {
		return 0, fmt.Errorf("mem: size %q does not fit in an address", s)
	}
	return Size(n), nil
}
