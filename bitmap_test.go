package easyfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitmapAllocFillsInOrder(t *testing.T) {
	dev := NewMemBlockDevice(4)
	bcm := NewBlockCacheManager(dev, 4)
	bm := NewBitmap(0, 1)

	for i := uint32(0); i < bm.Maximum(); i++ {
		idx, ok, err := bm.Alloc(bcm)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}

	_, ok, err := bm.Alloc(bcm)
	require.NoError(t, err)
	require.False(t, ok, "bitmap should report full once every bit is taken")
}

func TestBitmapDeallocReopensSlot(t *testing.T) {
	dev := NewMemBlockDevice(4)
	bcm := NewBlockCacheManager(dev, 4)
	bm := NewBitmap(0, 1)

	first, _, err := bm.Alloc(bcm)
	require.NoError(t, err)
	second, _, err := bm.Alloc(bcm)
	require.NoError(t, err)
	require.Equal(t, first+1, second)

	require.NoError(t, bm.Dealloc(bcm, first))

	reused, ok, err := bm.Alloc(bcm)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, reused, "a freed bit must be the next one allocated")
}

func TestBitmapDeallocOfClearBitPanics(t *testing.T) {
	dev := NewMemBlockDevice(4)
	bcm := NewBlockCacheManager(dev, 4)
	bm := NewBitmap(0, 1)

	require.Panics(t, func() {
		_ = bm.Dealloc(bcm, 5)
	})
}
