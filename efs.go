package easyfs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// inodesPerBlock is the number of 128-byte DiskInode records that fit in
// one 512-byte inode-area block.
const inodesPerBlock = BlockSize / 128

// dataBitmapCoverage is how many data blocks one data-bitmap block can
// describe alongside itself: up to 4096 data blocks plus the bitmap block
// that covers them (spec.md §4.8).
const dataBitmapCoverage = bitmapBitsPerBlock + 1

// EasyFileSystem is the top-level mounted-image object: it owns the BCM
// and both bitmaps, and computes the on-disk region layout on create/open
// (spec.md §4.8).
type EasyFileSystem struct {
	mu Locker

	bcm *BlockCacheManager

	totalBlocks    uint32
	inodeBitmap    Bitmap
	dataBitmap     Bitmap
	inodeAreaStart uint32
	dataAreaStart  uint32

	log *logrus.Entry
}

// Option configures an EasyFileSystem at Create/Open time, following the
// functional-option shape the rest of this package uses (mutex.go's
// LockerFactory, bcm.go's BCMOption).
type Option func(*EasyFileSystem)

// WithLockerFactory overrides the Locker implementation used for the EFS's
// own outer lock (spec.md §5, lock hierarchy position 1).
func WithLockerFactory(f LockerFactory) Option {
	return func(efs *EasyFileSystem) { efs.mu = f() }
}

func newEFS(bcm *BlockCacheManager, opts ...Option) *EasyFileSystem {
	efs := &EasyFileSystem{
		bcm: bcm,
		mu:  DefaultLockerFactory(),
		log: logrus.WithField("component", "efs"),
	}
	for _, opt := range opts {
		opt(efs)
	}
	return efs
}

// layout computes the region boundaries of spec.md §4.8 from the two
// inputs a create() call is given.
func layout(totalBlocks, inodeBitmapBlocks uint32) (inodeAreaBlocks, inodeAreaStart, dataBitmapBlocks, dataAreaBlocks, dataAreaStart uint32) {
	inodeCount := inodeBitmapBlocks * bitmapBitsPerBlock
	inodeAreaBlocks = (inodeCount*128 + BlockSize - 1) / BlockSize
	inodeAreaStart = 1 + inodeBitmapBlocks

	inodeTotalBlocks := inodeBitmapBlocks + inodeAreaBlocks
	dataTotalBlocks := totalBlocks - 1 - inodeTotalBlocks
	dataBitmapBlocks = (dataTotalBlocks + dataBitmapCoverage - 1) / dataBitmapCoverage
	dataAreaBlocks = dataTotalBlocks - dataBitmapBlocks
	dataAreaStart = inodeAreaStart + inodeAreaBlocks + dataBitmapBlocks
	return
}

// Create formats a fresh EasyFS image over bcm's device: superblock,
// bitmaps, inode area, and an empty root directory inode (spec.md §4.8).
func Create(bcm *BlockCacheManager, totalBlocks, inodeBitmapBlocks uint32, opts ...Option) (*EasyFileSystem, error) {
	inodeAreaBlocks, inodeAreaStart, dataBitmapBlocks, dataAreaBlocks, dataAreaStart := layout(totalBlocks, inodeBitmapBlocks)

	efs := newEFS(bcm, opts...)
	efs.totalBlocks = totalBlocks
	efs.inodeBitmap = NewBitmap(1, inodeBitmapBlocks)
	efs.dataBitmap = NewBitmap(inodeAreaStart+inodeAreaBlocks, dataBitmapBlocks)
	efs.inodeAreaStart = inodeAreaStart
	efs.dataAreaStart = dataAreaStart

	efs.log.WithFields(logrus.Fields{
		"total_blocks":        totalBlocks,
		"inode_bitmap_blocks": inodeBitmapBlocks,
		"inode_area_start":    inodeAreaStart,
		"data_area_start":     dataAreaStart,
	}).Info("creating easyfs image")

	err := efs.SyncTransaction(func(efs *EasyFileSystem) error {
		for i := uint32(0); i < totalBlocks; i++ {
			if _, err := WriteBlock(bcm, i, 0, func(b *dataBlockView) struct{} {
				*b = dataBlockView{}
				return struct{}{}
			}); err != nil {
				return fmt.Errorf("easyfs: zeroing block %d: %w", i, err)
			}
		}

		if _, err := WriteBlock(bcm, superBlockID, 0, func(sb *SuperBlock) struct{} {
			sb.Initialize(totalBlocks, inodeBitmapBlocks, inodeAreaBlocks, dataBitmapBlocks, dataAreaBlocks)
			return struct{}{}
		}); err != nil {
			return err
		}

		rootID, ok, err := efs.inodeBitmap.Alloc(bcm)
		if err != nil {
			return err
		}
		if !ok || rootID != 0 {
			panic("easyfs: root inode must be allocated as inode 0")
		}

		blockID, offset := efs.diskInodePos(rootID)
		_, err = WriteBlock(bcm, blockID, offset, func(di *DiskInode) struct{} {
			di.InitDiskInode(DirectoryInode)
			return struct{}{}
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return efs, nil
}

// Open reads an existing image's superblock and recomputes region starts
// from the persisted field values (spec.md §4.8).
func Open(bcm *BlockCacheManager, opts ...Option) (*EasyFileSystem, error) {
	sb, err := ReadBlock(bcm, superBlockID, 0, func(sb *SuperBlock) SuperBlock { return *sb })
	if err != nil {
		return nil, err
	}
	if !sb.IsValid() {
		return nil, ErrInvalidSuperblock
	}

	efs := newEFS(bcm, opts...)
	efs.totalBlocks = sb.TotalBlocks
	efs.inodeBitmap = NewBitmap(1, sb.InodeBitmapBlocks)
	inodeAreaStart := 1 + sb.InodeBitmapBlocks
	dataBitmapStart := inodeAreaStart + sb.InodeAreaBlocks
	efs.dataBitmap = NewBitmap(dataBitmapStart, sb.DataBitmapBlocks)
	efs.inodeAreaStart = inodeAreaStart
	efs.dataAreaStart = dataBitmapStart + sb.DataBitmapBlocks

	efs.log.WithFields(logrus.Fields{
		"inode_area_start": efs.inodeAreaStart,
		"data_area_start":  efs.dataAreaStart,
	}).Info("opened easyfs image")

	return efs, nil
}

// diskInodePos returns the (block id, offset in block) of inodeID
// (spec.md §4.8).
func (efs *EasyFileSystem) diskInodePos(inodeID uint32) (uint32, int) {
	block := efs.inodeAreaStart + inodeID/inodesPerBlock
	offset := int(inodeID%inodesPerBlock) * 128
	return block, offset
}

// AllocInode allocates a fresh inode id, returning ErrNoSpace if the inode
// bitmap is full (spec.md §9 Open Question: surfaced as an error rather
// than a panic, see DESIGN.md).
func (efs *EasyFileSystem) AllocInode() (uint32, error) {
	id, ok, err := efs.inodeBitmap.Alloc(efs.bcm)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoSpace
	}
	return id, nil
}

// AllocData allocates a fresh data block, returning its absolute device
// block id (data_area_start + bit index), or ErrNoSpace if full.
func (efs *EasyFileSystem) AllocData() (uint32, error) {
	bit, ok, err := efs.dataBitmap.Alloc(efs.bcm)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoSpace
	}
	return efs.dataAreaStart + bit, nil
}

// DeallocData zeroes blockID and clears its data-bitmap bit.
func (efs *EasyFileSystem) DeallocData(blockID uint32) error {
	if _, err := WriteBlock(efs.bcm, blockID, 0, func(b *dataBlockView) struct{} {
		*b = dataBlockView{}
		return struct{}{}
	}); err != nil {
		return err
	}
	return efs.dataBitmap.Dealloc(efs.bcm, blockID-efs.dataAreaStart)
}

// NewInodeNolock allocates an inode id and writes an initialized DiskInode
// at its slot. Caller must hold efs.mu.
func (efs *EasyFileSystem) NewInodeNolock(t InodeType) (uint32, error) {
	id, err := efs.AllocInode()
	if err != nil {
		return 0, err
	}
	blockID, offset := efs.diskInodePos(id)
	_, err = WriteBlock(efs.bcm, blockID, offset, func(di *DiskInode) struct{} {
		di.InitDiskInode(t)
		return struct{}{}
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// IncreaseSizeNolock computes the blocks diskInode needs to reach newSize,
// allocates them, and grows diskInode. Caller must hold efs.mu.
func (efs *EasyFileSystem) IncreaseSizeNolock(newSize uint32, diskInode *DiskInode) error {
	needed := diskInode.BlocksNumNeeded(newSize)
	blocks := make([]uint32, needed)
	for i := range blocks {
		id, err := efs.AllocData()
		if err != nil {
			// Roll back blocks already allocated this call so a failed grow
			// doesn't leak data-bitmap bits.
			for _, b := range blocks[:i] {
				_ = efs.DeallocData(b)
			}
			return err
		}
		blocks[i] = id
	}
	return diskInode.IncreaseSize(newSize, blocks, efs.bcm)
}

// SyncTransaction runs op and then flushes every dirty cache block to the
// device. This is the commit point spec.md §4.8 describes: there is no
// journaling or rollback, only a write-back barrier.
func (efs *EasyFileSystem) SyncTransaction(op func(*EasyFileSystem) error) error {
	if err := op(efs); err != nil {
		return err
	}
	return efs.bcm.SyncAll()
}

// BCM returns the underlying block cache manager.
func (efs *EasyFileSystem) BCM() *BlockCacheManager { return efs.bcm }
