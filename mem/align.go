package mem

// Alignment helpers. Every alignment handled by this module is a power of two,
// which lets rounding be done with a mask instead of a division.

// IsPowerOfTwo reports whether n is a non-zero power of two.
//
// Example:
//
//	IsPowerOfTwo(0)    = false
//	IsPowerOfTwo(1)    = true
//	IsPowerOfTwo(4096) = true
//	IsPowerOfTwo(24)   = false
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// alignUp returns n rounded up to the next multiple of align.
// ok is false if the result does not fit in a uintptr.
func alignUp(n, align uintptr) (uintptr, bool) {
	mask := align - 1
	r := (n + mask) &^ mask
	return r, r >= n
}

// alignDown returns n rounded down to a multiple of align.
func alignDown(n, align uintptr) uintptr {
	return n &^ (align - 1)
}
