package easyfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalBlocksCrossesIndirectThresholds(t *testing.T) {
	require.Equal(t, uint32(0), TotalBlocks(0))
	require.Equal(t, uint32(1), TotalBlocks(1))
	require.Equal(t, uint32(DirectCount), TotalBlocks(DirectCount*BlockSize))
	// One block past the direct range needs the indirect1 block too.
	require.Equal(t, uint32(DirectCount+2), TotalBlocks((DirectCount+1)*BlockSize))
}

func newInodeWithBlocks(t *testing.T, bcm *BlockCacheManager, efs *EasyFileSystem, newSize uint32) DiskInode {
	t.Helper()
	var d DiskInode
	d.InitDiskInode(FileInode)
	require.NoError(t, efs.IncreaseSizeNolock(newSize, &d))
	return d
}

func newTestEFS(t *testing.T, totalBlocks uint32) (*EasyFileSystem, *BlockCacheManager) {
	t.Helper()
	dev := NewMemBlockDevice(totalBlocks)
	bcm := NewBlockCacheManager(dev, 32)
	efs, err := Create(bcm, totalBlocks, 1)
	require.NoError(t, err)
	return efs, bcm
}

func TestIncreaseSizeAndReadWriteRoundTrip(t *testing.T) {
	efs, bcm := newTestEFS(t, 2048)

	d := newInodeWithBlocks(t, bcm, efs, 3*BlockSize+100)

	payload := make([]byte, 3*BlockSize+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := d.WriteAt(0, payload, bcm)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	out := make([]byte, len(payload))
	n, err = d.ReadAt(0, out, bcm)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, out)
}

func TestIncreaseSizeSpansIndirect1(t *testing.T) {
	// DirectCount + 5 blocks forces use of the indirect1 block.
	size := uint32(DirectCount+5) * BlockSize
	efs, bcm := newTestEFS(t, size/BlockSize+2048)

	d := newInodeWithBlocks(t, bcm, efs, size)
	require.NotZero(t, d.Indirect1)

	last := DirectCount + 4
	blockID, err := d.GetBlockID(uint32(last), bcm)
	require.NoError(t, err)
	require.NotZero(t, blockID)
}

func TestClearSizeFreesEveryBlockAndResetsSize(t *testing.T) {
	size := uint32(DirectCount+5) * BlockSize
	efs, bcm := newTestEFS(t, size/BlockSize+2048)

	d := newInodeWithBlocks(t, bcm, efs, size)
	expectedFreed := int(TotalBlocks(size))

	freed, err := d.ClearSize(bcm)
	require.NoError(t, err)
	require.Len(t, freed, expectedFreed)
	require.Equal(t, uint32(0), d.Size)
	require.Equal(t, uint32(0), d.Indirect1)
}

func TestGetBlockIDOnDirectRange(t *testing.T) {
	efs, bcm := newTestEFS(t, 2048)
	d := newInodeWithBlocks(t, bcm, efs, BlockSize)

	id, err := d.GetBlockID(0, bcm)
	require.NoError(t, err)
	require.Equal(t, d.Direct[0], id)
}
