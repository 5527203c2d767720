package early

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bootalloc/mem"
)

// newTestAllocator returns an allocator already initialized over [start, start+size).
func newTestAllocator(t testing.TB, start mem.Addr, size, pageSize mem.Size) *EarlyAllocator {
	t.Helper()
	ea, err := New(pageSize)
	require.NoError(t, err)
	require.NoError(t, ea.Init(start, size))
	return ea
}

// requireInvariants fails the test if the allocator state is inconsistent.
func requireInvariants(t testing.TB, ea *EarlyAllocator) {
	t.Helper()
	require.NoError(t, ea.Stats().Check())
}
