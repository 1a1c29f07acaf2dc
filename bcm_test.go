package easyfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBCMHitReturnsSameSlot(t *testing.T) {
	dev := NewMemBlockDevice(4)
	bcm := NewBlockCacheManager(dev, 2)

	h1, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	h1.Release()

	h2, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	defer h2.Release()

	require.Same(t, h1.BC(), h2.BC(), "a second lookup of the same block must hit, not re-admit")
}

func TestBCMEvictsLeastRecentlyUsed(t *testing.T) {
	dev := NewMemBlockDevice(8)
	bcm := NewBlockCacheManager(dev, 2)

	h0, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	h0.Release()

	h1, err := bcm.GetBlockCache(1)
	require.NoError(t, err)
	h1.Release()

	// Touch block 0 again so block 1 becomes the LRU slot.
	h0b, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	h0b.Release()

	// Admitting block 2 must evict block 1, not block 0.
	h2, err := bcm.GetBlockCache(2)
	require.NoError(t, err)
	defer h2.Release()

	h0c, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	defer h0c.Release()
	require.Same(t, h0b.BC(), h0c.BC(), "block 0 should still be resident")
}

func TestBCMSkipsPinnedSlotsDuringEviction(t *testing.T) {
	dev := NewMemBlockDevice(8)
	bcm := NewBlockCacheManager(dev, 2)

	pinned, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	defer pinned.Release()

	h1, err := bcm.GetBlockCache(1)
	require.NoError(t, err)
	h1.Release()

	// Only slot 1 (refcount 1) is eligible; this must not touch slot 0.
	h2, err := bcm.GetBlockCache(2)
	require.NoError(t, err)
	defer h2.Release()

	require.Same(t, pinned.BC(), bcm.caches[pinned.slot], "the pinned slot must not be evicted")
}

func TestBCMExhaustedPanicsWhenEveryHandleLive(t *testing.T) {
	dev := NewMemBlockDevice(8)
	bcm := NewBlockCacheManager(dev, 1)

	h, err := bcm.GetBlockCache(0)
	require.NoError(t, err)
	defer h.Release()

	require.Panics(t, func() {
		_, _ = bcm.GetBlockCache(1)
	})
}

func TestSyncAllFlushesDirtyBlocks(t *testing.T) {
	dev := NewMemBlockDevice(2)
	bcm := NewBlockCacheManager(dev, 2)

	_, err := WriteBlock(bcm, 0, 0, func(b *dataBlockView) struct{} {
		b[0] = 0xAB
		return struct{}{}
	})
	require.NoError(t, err)
	require.NoError(t, bcm.SyncAll())

	var raw [BlockSize]byte
	require.NoError(t, dev.ReadBlock(0, raw[:]))
	require.Equal(t, byte(0xAB), raw[0])
}
