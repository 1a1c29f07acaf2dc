package easyfs

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateFindListDirWithManyFiles(t *testing.T) {
	dev := NewMemBlockDevice(16384)
	bcm := NewBlockCacheManager(dev, 64)
	efs, err := Create(bcm, 16384, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	const n = 1000
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("file%d", i)
		_, ok, err := root.Create(name)
		require.NoError(t, err)
		require.True(t, ok)
	}

	names, err := root.ListDir()
	require.NoError(t, err)
	require.Len(t, names, n)

	for i := 0; i < n; i += 137 {
		name := fmt.Sprintf("file%d", i)
		found, ok, err := root.Find(name)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotNil(t, found)
	}

	_, ok, err := root.Find("does-not-exist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateOfExistingNameReturnsFalseNotError(t *testing.T) {
	dev := NewMemBlockDevice(2048)
	bcm := NewBlockCacheManager(dev, 16)
	efs, err := Create(bcm, 2048, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	_, ok, err := root.Create("dup.txt")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = root.Create("dup.txt")
	require.NoError(t, err)
	require.False(t, ok, "creating an existing name must report false, not an error")
}

func TestCreateRejectsOverlongName(t *testing.T) {
	dev := NewMemBlockDevice(256)
	bcm := NewBlockCacheManager(dev, 16)
	efs, err := Create(bcm, 256, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	longName := ""
	for i := 0; i < MaxNameLen+1; i++ {
		longName += "a"
	}
	_, _, err = root.Create(longName)
	require.ErrorIs(t, err, ErrNameTooLong)
}

func TestRandomReadWriteMatchesReferenceBuffer(t *testing.T) {
	dev := NewMemBlockDevice(16384)
	bcm := NewBlockCacheManager(dev, 64)
	efs, err := Create(bcm, 16384, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	file, ok, err := root.Create("scratch.bin")
	require.NoError(t, err)
	require.True(t, ok)

	rng := rand.New(rand.NewSource(1))
	var reference []byte

	for iter := 0; iter < 200; iter++ {
		offset := rng.Intn(8192)
		length := rng.Intn(512) + 1
		chunk := make([]byte, length)
		rng.Read(chunk)

		if offset+length > len(reference) {
			grown := make([]byte, offset+length)
			copy(grown, reference)
			reference = grown
		}
		copy(reference[offset:offset+length], chunk)

		n, err := file.WriteAt(offset, chunk)
		require.NoError(t, err)
		require.Equal(t, length, n)
	}

	size, err := file.Size()
	require.NoError(t, err)
	require.Equal(t, uint32(len(reference)), size)

	got := make([]byte, len(reference))
	n, err := file.ReadAt(0, got)
	require.NoError(t, err)
	require.Equal(t, len(reference), n)
	require.Equal(t, reference, got)
}

func TestClearReleasesAllBlocksForReuse(t *testing.T) {
	// 1077 blocks leave a 50-block data area (1 superblock, 1 inode
	// bitmap, 1024 inode-area and 1 data-bitmap blocks come first).
	dev := NewMemBlockDevice(1077)
	bcm := NewBlockCacheManager(dev, 32)
	efs, err := Create(bcm, 1077, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	file, ok, err := root.Create("big.bin")
	require.NoError(t, err)
	require.True(t, ok)

	payload := make([]byte, 40*BlockSize)
	_, err = file.WriteAt(0, payload)
	require.NoError(t, err)

	require.NoError(t, file.Clear())

	size, err := file.Size()
	require.NoError(t, err)
	require.Equal(t, uint32(0), size)

	// The freed blocks must be available again: the root directory holds
	// one data block and each 40-block file needs 41 (with indirect1), so
	// a second file of the same size fits only if Clear freed the first.
	other, ok, err := root.Create("reuse.bin")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = other.WriteAt(0, payload)
	require.NoError(t, err)
}

func TestWriteAtRejectsFileLargerThanMaxSize(t *testing.T) {
	dev := NewMemBlockDevice(2048)
	bcm := NewBlockCacheManager(dev, 4)
	efs, err := Create(bcm, 2048, 1)
	require.NoError(t, err)

	root := RootInode(efs)
	file, ok, err := root.Create("huge.bin")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = file.WriteAt(int(MaxFileSize), []byte{1})
	require.ErrorIs(t, err, ErrFileTooLarge)
}
