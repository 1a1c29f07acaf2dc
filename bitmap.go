package easyfs

import "math/bits"

// bitmapWordsPerBlock is the number of u64 words in one 512-byte bitmap
// block (spec.md §4.4: "a bitmap block is logically an array of 64 × u64").
const bitmapWordsPerBlock = 64

// bitmapBitsPerBlock is the number of bits one bitmap block covers.
const bitmapBitsPerBlock = bitmapWordsPerBlock * 64 // 4096

// Bitmap is a region descriptor over a contiguous run of bitmap blocks
// (spec.md §4.4). It carries no state beyond its own region layout; every
// mutation threads through the BlockCacheManager.
type Bitmap struct {
	startBlock uint32
	blocks     uint32
}

// NewBitmap describes a bitmap region of blocks blocks starting at startBlock.
func NewBitmap(startBlock, blocks uint32) Bitmap {
	return Bitmap{startBlock: startBlock, blocks: blocks}
}

// Maximum returns the number of bits this bitmap region can represent.
func (b Bitmap) Maximum() uint32 {
	return b.blocks * bitmapBitsPerBlock
}

// bitmapBlock is the in-place typed view of one on-disk bitmap block.
type bitmapBlock [bitmapWordsPerBlock]uint64

// allocResult carries one bitmap block's scan result out of WriteBlock.
type allocResult struct {
	found bool
	index uint32
}

// Alloc scans each region block in order, finds the first word that isn't
// all-ones, sets its lowest cleared bit, and returns the global bit index.
// It returns (0, false, nil) if every block is full (spec.md §4.4).
func (b Bitmap) Alloc(bcm *BlockCacheManager) (uint32, bool, error) {
	for blockPos := uint32(0); blockPos < b.blocks; blockPos++ {
		res, err := WriteBlock(bcm, b.startBlock+blockPos, 0, func(block *bitmapBlock) allocResult {
			for wordPos, word := range block {
				if word == ^uint64(0) {
					continue
				}
				k := bits.TrailingZeros64(^word)
				block[wordPos] = word | (uint64(1) << uint(k))
				return allocResult{true, blockPos*bitmapBitsPerBlock + uint32(wordPos)*64 + uint32(k)}
			}
			return allocResult{false, 0}
		})
		if err != nil {
			return 0, false, err
		}
		if res.found {
			return res.index, true, nil
		}
	}
	return 0, false, nil
}

// Dealloc clears bitIndex, asserting it was set (spec.md §4.4: "Assert the
// bit is currently set; clear it" — a double-free is a programmer error).
func (b Bitmap) Dealloc(bcm *BlockCacheManager, bitIndex uint32) error {
	blockPos := bitIndex / bitmapBitsPerBlock
	within := bitIndex % bitmapBitsPerBlock
	wordPos := within / 64
	bitPos := within % 64

	_, err := WriteBlock(bcm, b.startBlock+blockPos, 0, func(block *bitmapBlock) struct{} {
		if block[wordPos]&(uint64(1)<<bitPos) == 0 {
			panic("easyfs: bitmap double-free")
		}
		block[wordPos] &^= uint64(1) << bitPos
		return struct{}{}
	})
	return err
}
