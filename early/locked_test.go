package early

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bootalloc/mem"
)

func TestLocked_ConcurrentAlloc(t *testing.T) {
	ea, err := New(4 * mem.KiB)
	require.NoError(t, err)
	l := NewLocked(ea)
	require.NoError(t, l.Init(0x100000, mem.MiB))

	const workers, perWorker = 8, 200
	results := make([][]mem.Addr, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				addr, err := l.Alloc(Layout{Size: 32, Align: 16})
				if err != nil {
					t.Errorf("worker %d: %v", w, err)
					return
				}
				results[w] = append(results[w], addr)
			}
		}()
	}
	wg.Wait()

	seen := make(map[mem.Addr]bool)
	for _, rs := range results {
		for _, a := range rs {
			assert.False(t, seen[a], "address %v handed out twice", a)
			seen[a] = true
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), l.Stats().Outstanding)
	require.NoError(t, l.Stats().Check())
}

func TestLocked_MixedTraffic(t *testing.T) {
	ea, err := New(4 * mem.KiB)
	require.NoError(t, err)
	l := NewLocked(ea)
	require.NoError(t, l.Init(0x100000, mem.MiB))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				a, err := l.Alloc(Layout{Size: 64, Align: 8})
				if err == nil {
					_ = l.Dealloc(a, Layout{Size: 64, Align: 8})
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 10 {
				_, _ = l.AllocPages(1, 4*mem.KiB)
			}
		}()
	}
	wg.Wait()

	s := l.Stats()
	require.NoError(t, s.Check())
	assert.Zero(t, s.Outstanding)
	assert.Equal(t, 40, l.UsedPages())
	assert.Equal(t, s.Start, s.BytePos)
}

func TestLocked_Do(t *testing.T) {
	ea, err := New(4 * mem.KiB)
	require.NoError(t, err)
	l := NewLocked(ea)
	require.NoError(t, l.Init(0x1000, 0x4000))

	err = l.Do(func(ea *EarlyAllocator) error {
		if _, err := ea.Alloc(Layout{Size: 8, Align: 8}); err != nil {
			return err
		}
		_, err := ea.AllocPages(1, ea.PageSize())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, l.UsedPages())
	assert.Equal(t, mem.Size(8), l.UsedBytes())

	require.ErrorIs(t, l.AddMemory(0x5000, 0x1000), ErrNoMemory)
	require.ErrorIs(t, l.DeallocPages(0x4000, 1), ErrUnsupported)
}

func TestLocked_PageSizeDuringInit(t *testing.T) {
	l := NewLocked(&EarlyAllocator{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			ps := l.PageSize()
			if ps != 0 && ps != DefaultPageSize {
				t.Errorf("PageSize = %v", ps)
				return
			}
		}
	}()
	require.NoError(t, l.Init(0x1000, 0x4000))
	wg.Wait()

	assert.Equal(t, DefaultPageSize, l.PageSize())
}
