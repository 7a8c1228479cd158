package bitmap_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/bitmap"
)

func TestSetTestPopCount(t *testing.T) {
	b := bitmap.New()
	assert.True(t, b.IsZero())

	b.Set(0)
	b.Set(5)
	b.Set(2047)
	assert.True(t, b.Test(0))
	assert.True(t, b.Test(5))
	assert.True(t, b.Test(2047))
	assert.False(t, b.Test(1))
	assert.Equal(t, 3, b.PopCount())
	assert.False(t, b.IsZero())
}

func TestEqual(t *testing.T) {
	a, err := bitmap.FromIndices([]int{0, 1, 2})
	require.NoError(t, err)
	b, err := bitmap.FromIndices([]int{2, 1, 0})
	require.NoError(t, err)
	c, err := bitmap.FromIndices([]int{0, 1})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestFromIndicesOutOfRange(t *testing.T) {
	_, err := bitmap.FromIndices([]int{bitmap.MaxBits})
	assert.Error(t, err)

	_, err = bitmap.FromIndices([]int{-1})
	assert.Error(t, err)
}

func TestToIndicesRoundTrip(t *testing.T) {
	want := []int{0, 1, 63, 64, 65, 2046, 2047}
	b, err := bitmap.FromIndices(want)
	require.NoError(t, err)
	assert.Equal(t, want, b.ToIndices())
}

func TestSetAtomicConcurrent(t *testing.T) {
	b := bitmap.New()
	var wg sync.WaitGroup
	for i := 0; i < bitmap.MaxBits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.SetAtomic(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, bitmap.MaxBits, b.PopCount())
}

func TestCopyIsIndependent(t *testing.T) {
	a := bitmap.New()
	a.Set(3)
	cp := a.Copy()
	cp.Set(4)
	assert.False(t, a.Test(4))
	assert.True(t, cp.Test(3))
}
