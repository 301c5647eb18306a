package resource_test

import (
	"sync"
	"testing"

	"github.com/katalvlaran/spsolve/resource"
	"github.com/stretchr/testify/require"
)

func TestCounter_AcquireRelease(t *testing.T) {
	t.Parallel()

	c := resource.NewCounter()
	h, err := c.Acquire(resource.KindSymbolic, 64)
	require.NoError(t, err)
	require.Equal(t, resource.KindSymbolic, h.Kind())
	require.EqualValues(t, 64, h.Bytes())
	require.EqualValues(t, 1, c.Live())
	require.EqualValues(t, 64, c.LiveBytes())

	require.True(t, h.Release())
	require.False(t, h.Release(), "second release must be a no-op")
	require.True(t, h.Released())
	require.EqualValues(t, 0, c.Live())
	require.EqualValues(t, 0, c.LiveBytes())
	require.EqualValues(t, 1, c.Acquired())
	require.EqualValues(t, 1, c.Released())
}

func TestCounter_Limit(t *testing.T) {
	t.Parallel()

	c := resource.NewCounter(resource.WithLimit(100))
	h, err := c.Acquire(resource.KindNumeric, 80)
	require.NoError(t, err)

	_, err = c.Acquire(resource.KindNumeric, 40)
	require.ErrorIs(t, err, resource.ErrExhausted)
	require.EqualValues(t, 1, c.Failed())

	h.Release()
	h2, err := c.Acquire(resource.KindNumeric, 40)
	require.NoError(t, err)
	h2.Release()
	require.EqualValues(t, 0, c.Live())
}

func TestHandle_NilRelease(t *testing.T) {
	var h *resource.Handle
	require.False(t, h.Release())
	require.False(t, h.Released())
}

func TestWithLimit_PanicsOnNegative(t *testing.T) {
	require.Panics(t, func() { resource.WithLimit(-1) })
}

func TestCounter_ConcurrentRelease(t *testing.T) {
	t.Parallel()

	c := resource.NewCounter()
	h, err := c.Acquire(resource.KindDense, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.Release() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.EqualValues(t, 1, c.Released())
}
