package backing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bootalloc/mem"
)

func TestMap_RoundsToPageSize(t *testing.T) {
	r, err := Map(100)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, PageSize(), r.Size())
	assert.True(t, r.Base().IsAligned(PageSize()), "base %v not page aligned", r.Base())
}

func TestMap_ZeroSize(t *testing.T) {
	_, err := Map(0)
	require.ErrorIs(t, err, ErrZeroSize)
}

func TestRegion_BytesReadWrite(t *testing.T) {
	r, err := Map(4 * PageSize())
	require.NoError(t, err)
	defer r.Close()

	a, _ := r.Base().Add(128)
	buf, err := r.Bytes(a, 16)
	require.NoError(t, err)
	require.Len(t, buf, 16)
	assert.Equal(t, 16, cap(buf), "capacity must be clamped")

	for i := range buf {
		assert.Zero(t, buf[i], "fresh mapping should be zeroed")
		buf[i] = byte(i + 1)
	}

	// A second view over the same addresses sees the writes.
	again, err := r.Bytes(a, 16)
	require.NoError(t, err)
	assert.Equal(t, buf, again)
}

func TestRegion_BytesBounds(t *testing.T) {
	r, err := Map(PageSize())
	require.NoError(t, err)
	defer r.Close()

	base := r.Base()
	end, _ := base.Add(r.Size())

	tests := []struct {
		name string
		addr mem.Addr
		n    mem.Size
		ok   bool
	}{
		{"whole region", base, r.Size(), true},
		{"empty at end", end, 0, true},
		{"last byte", end - 1, 1, true},
		{"below base", base - 1, 1, false},
		{"past end", end, 1, false},
		{"straddles end", end - 4, 8, false},
		{"huge length", base, ^mem.Size(0), false},
	}
	for _, tt := range tests {
		_, err := r.Bytes(tt.addr, tt.n)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrOutOfRange, tt.name)
		}
	}
}

func TestRegion_Close(t *testing.T) {
	r, err := Map(PageSize())
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "second Close should be a no-op")

	_, err = r.Bytes(r.Base(), 1)
	require.ErrorIs(t, err, ErrClosed)
}
