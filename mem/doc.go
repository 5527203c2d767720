// Package mem defines the address and size value types shared by the boot
// allocator packages.
//
// Addresses are opaque numbers. All rounding and bounds arithmetic is done on
// Addr and Size, with overflow reported through an ok result instead of
// silently wrapping. Nothing here touches memory.
package mem
