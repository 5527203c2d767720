package boot

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/mem"
)

func openTestStage(t *testing.T, size mem.Size, opts *Options) *Stage {
	t.Helper()
	s, err := Open(size, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Defaults(t *testing.T) {
	s := openTestStage(t, 64*mem.KiB, nil)

	st := s.Stats()
	require.NoError(t, st.Check())
	assert.Equal(t, early.DefaultPageSize, st.PageSize)
	assert.GreaterOrEqual(t, st.TotalBytes, 64*mem.KiB)
	assert.Equal(t, st.Start, st.BytePos)
	assert.Equal(t, st.End, st.PagePos)
}

func TestOpen_BadPageSize(t *testing.T) {
	_, err := Open(64*mem.KiB, &Options{PageSize: 3000})
	require.ErrorIs(t, err, early.ErrInvalidParam)
}

// TestStage_AllocWritable tests that byte and page allocations are backed by usable memory.
func TestStage_AllocWritable(t *testing.T) {
	s := openTestStage(t, 64*mem.KiB, nil)

	addr, buf, err := s.Alloc(early.Layout{Size: 24, Align: 8})
	require.NoError(t, err)
	require.Len(t, buf, 24)
	assert.True(t, addr.IsAligned(8))
	copy(buf, "boot command line here!")

	paddr, pbuf, err := s.AllocPages(2, early.DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, pbuf, int(2*early.DefaultPageSize))
	assert.True(t, paddr.IsAligned(early.DefaultPageSize))
	for i := range pbuf {
		pbuf[i] = 0xAA
	}

	// Page writes must not clobber the byte allocation.
	assert.Equal(t, "boot command line here!", string(buf[:23]))

	st := s.Stats()
	assert.Equal(t, paddr, st.PagePos)
	assert.Equal(t, 2, st.UsedPages)
}

func TestStage_DeallocReclaims(t *testing.T) {
	s := openTestStage(t, 16*mem.KiB, nil)
	l := early.Layout{Size: 128, Align: 16}

	a1, _, err := s.Alloc(l)
	require.NoError(t, err)
	a2, _, err := s.Alloc(l)
	require.NoError(t, err)

	require.NoError(t, s.Dealloc(a1, l))
	assert.NotEqual(t, s.Stats().Start, s.Stats().BytePos)
	require.NoError(t, s.Dealloc(a2, l))
	assert.Equal(t, s.Stats().Start, s.Stats().BytePos)

	require.ErrorIs(t, s.Dealloc(a2, l), early.ErrNoOutstanding)
}

func TestStage_Exhaustion(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := openTestStage(t, 16*mem.KiB, &Options{Logger: logger})

	total := s.Stats().TotalPages
	for range total {
		_, _, err := s.AllocPages(1, early.DefaultPageSize)
		require.NoError(t, err)
	}
	before := s.Stats()

	_, _, err := s.AllocPages(1, early.DefaultPageSize)
	require.ErrorIs(t, err, early.ErrNoMemory)
	_, _, err = s.Alloc(early.Layout{Size: 1, Align: 1})
	require.ErrorIs(t, err, early.ErrNoMemory)
	assert.Equal(t, before, s.Stats())

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "alloc_pages exhausted region")
}

// TestStage_Handoff tests that the stage refuses work once handed off.
func TestStage_Handoff(t *testing.T) {
	s := openTestStage(t, 16*mem.KiB, nil)

	addr, _, err := s.Alloc(early.Layout{Size: 64, Align: 8})
	require.NoError(t, err)
	_, _, err = s.AllocPages(1, early.DefaultPageSize)
	require.NoError(t, err)

	st, err := s.Handoff()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Outstanding)
	assert.Equal(t, 1, st.UsedPages)

	_, _, err = s.Alloc(early.Layout{Size: 8, Align: 8})
	require.ErrorIs(t, err, ErrHandedOff)
	_, _, err = s.AllocPages(1, early.DefaultPageSize)
	require.ErrorIs(t, err, ErrHandedOff)
	require.ErrorIs(t, s.Dealloc(addr, early.Layout{Size: 64, Align: 8}), ErrHandedOff)

	_, err = s.Handoff()
	require.ErrorIs(t, err, ErrHandedOff)
	assert.Equal(t, st, s.Stats(), "state is frozen after handoff")
}

func TestStage_ConcurrentAlloc(t *testing.T) {
	s := openTestStage(t, mem.MiB, nil)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_, buf, err := s.Alloc(early.Layout{Size: 16, Align: 8})
				if err != nil {
					t.Errorf("worker %d alloc %d: %v", w, i, err)
					return
				}
				for j := range buf {
					buf[j] = byte(w)
				}
			}
		}()
	}
	wg.Wait()

	st := s.Stats()
	require.NoError(t, st.Check())
	assert.Equal(t, uint64(400), st.Outstanding)
	assert.Equal(t, mem.Size(400*16), st.UsedBytes)
}

func TestStage_FixedRegion(t *testing.T) {
	s := openTestStage(t, 16*mem.KiB, nil)
	addr, _, err := s.AllocPages(1, early.DefaultPageSize)
	require.NoError(t, err)

	require.ErrorIs(t, s.DeallocPages(addr, 1), early.ErrUnsupported)
	require.ErrorIs(t, s.AddMemory(addr, early.DefaultPageSize), early.ErrNoMemory)
	assert.Equal(t, 1, s.Stats().UsedPages)
}

// TestStage_UseAfterClose tests that calls after Close fail without moving any cursor.
func TestStage_UseAfterClose(t *testing.T) {
	s, err := Open(16*mem.KiB, nil)
	require.NoError(t, err)
	l := early.Layout{Size: 64, Align: 8}
	addr, _, err := s.Alloc(l)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")
	before := s.Stats()

	_, buf, err := s.Alloc(l)
	require.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, buf)
	_, buf, err = s.AllocPages(1, early.DefaultPageSize)
	require.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, buf)
	require.ErrorIs(t, s.Dealloc(addr, l), ErrClosed)
	_, err = s.Handoff()
	require.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, before, s.Stats())
	require.NoError(t, s.Stats().Check())
}

func TestStage_CloseRacesAlloc(t *testing.T) {
	s, err := Open(mem.MiB, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				// The returned slice may already be unmapped; only the error is checked.
				_, _, err := s.Alloc(early.Layout{Size: 8, Align: 8})
				if err != nil && !assert.ErrorIs(t, err, ErrClosed) {
					return
				}
			}
		}()
	}
	require.NoError(t, s.Close())
	wg.Wait()

	st := s.Stats()
	require.NoError(t, st.Check())
	assert.Equal(t, mem.Size(st.Outstanding*8), st.UsedBytes, "only successful allocs are counted")
}
