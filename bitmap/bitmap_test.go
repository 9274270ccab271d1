package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllSetMasksTail(t *testing.T) {
	b := New(70, AllSet)
	require.Equal(t, 2, b.NumBlocks())
	assert.Equal(t, uint64(70), b.Popcount())
	for i := 70; i < 128; i++ {
		assert.False(t, b.Get(i), "bit %d beyond length must be clear", i)
	}
}

func TestSetClearGet(t *testing.T) {
	b := New(10, AllClear)
	b.Set(3)
	b.Set(9)
	assert.True(t, b.Get(3))
	assert.True(t, b.Get(9))
	assert.False(t, b.Get(4))
	b.Clear(3)
	assert.False(t, b.Get(3))
	assert.Equal(t, uint64(1), b.Popcount())
}

func TestAndOrAndNotNot(t *testing.T) {
	a := New(8, AllClear)
	b := New(8, AllClear)
	a.Set(0)
	a.Set(1)
	b.Set(1)
	b.Set(2)

	and := New(8, AllClear)
	and.CopyFrom(a)
	and.And(b)
	assert.Equal(t, []int{1}, and.SetIndices())

	or := New(8, AllClear)
	or.CopyFrom(a)
	or.Or(b)
	assert.Equal(t, []int{0, 1, 2}, or.SetIndices())

	andnot := New(8, AllClear)
	andnot.CopyFrom(a)
	andnot.AndNot(b)
	assert.Equal(t, []int{0}, andnot.SetIndices())

	notA := New(8, AllClear)
	notA.CopyFrom(a)
	notA.Not()
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, notA.SetIndices())
}

func TestIterSetIndicesStrictlyIncreasingAndMatchesPopcount(t *testing.T) {
	b := New(200, AllClear)
	for _, i := range []int{0, 1, 63, 64, 65, 127, 128, 199} {
		b.Set(i)
	}
	var got []int
	b.IterSetIndices(func(row int) { got = append(got, row) })
	require.Equal(t, int(b.Popcount()), len(got))
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i], "iter_set_indices must be strictly increasing")
	}
}

func TestAndMask8(t *testing.T) {
	b := New(16, AllSet)
	// Clear rows 8 and 10 via an 8-lane mask applied to byte index 8.
	b.AndMask8(8, 0b11111010)
	assert.True(t, b.Get(9))
	assert.False(t, b.Get(8))
	assert.False(t, b.Get(10))
	assert.True(t, b.Get(11))
}

func TestAndWithArrowNullBitmap(t *testing.T) {
	b := New(16, AllSet)
	// Arrow convention: bit=1 means valid. Mark rows 0 and 5 as null.
	nulls := []byte{0b11011110, 0xFF}
	b.AndWithArrowNullBitmap(nulls)
	assert.False(t, b.Get(0))
	assert.False(t, b.Get(5))
	assert.True(t, b.Get(1))
	assert.Equal(t, uint64(14), b.Popcount())
}

func TestAndWithArrowNullBitmapShortTail(t *testing.T) {
	b := New(5, AllSet)
	nulls := []byte{0b00010111} // bits 0,1,2,4 valid; bit 3 null
	b.AndWithArrowNullBitmap(nulls)
	assert.True(t, b.Get(0))
	assert.True(t, b.Get(1))
	assert.True(t, b.Get(2))
	assert.False(t, b.Get(3))
	assert.True(t, b.Get(4))
}

func TestIterBlocksVisitsEveryBlockInOrder(t *testing.T) {
	b := New(130, AllClear)
	b.Set(5)
	b.Set(70)
	b.Set(129)
	var idxs []int
	var blocks []uint64
	b.IterBlocks(func(blockIndex int, block uint64) {
		idxs = append(idxs, blockIndex)
		blocks = append(blocks, block)
	})
	assert.Equal(t, []int{0, 1, 2}, idxs)
	assert.NotZero(t, blocks[0])
	assert.NotZero(t, blocks[1])
	assert.NotZero(t, blocks[2])
}

func TestPoolBorrowReleaseReusesStorage(t *testing.T) {
	p := NewPool()
	b1 := p.Borrow(100, AllSet)
	assert.Equal(t, uint64(100), b1.Popcount())
	p.Release(b1)

	b2 := p.Borrow(50, AllClear)
	assert.Equal(t, uint64(0), b2.Popcount())
	assert.Equal(t, 50, b2.Len())
}

func TestIdempotentAndIsNoOp(t *testing.T) {
	a := New(16, AllSet)
	a.Clear(1)
	a.Clear(5)
	snapshot := New(16, AllClear)
	snapshot.CopyFrom(a)

	a.And(a) // evaluating against itself must be a no-op
	assert.Equal(t, snapshot.SetIndices(), a.SetIndices())
}
