package easyfs

// SuperBlockMagic identifies a block 0 as belonging to an EasyFS image
// (spec.md §4.7, §6.2).
const SuperBlockMagic uint32 = 0x3b800001

// SuperBlock is the 24-byte region-layout descriptor persisted at block 0,
// immutable once Create has written it (spec.md §3, §4.7).
type SuperBlock struct {
	Magic             uint32
	TotalBlocks       uint32
	InodeBitmapBlocks uint32
	InodeAreaBlocks   uint32
	DataBitmapBlocks  uint32
	DataAreaBlocks    uint32
}

// IsValid reports whether sb carries the EasyFS magic.
func (sb *SuperBlock) IsValid() bool { return sb.Magic == SuperBlockMagic }

// Initialize populates every field of sb, including the magic.
func (sb *SuperBlock) Initialize(totalBlocks, inodeBitmapBlocks, inodeAreaBlocks, dataBitmapBlocks, dataAreaBlocks uint32) {
	sb.Magic = SuperBlockMagic
	sb.TotalBlocks = totalBlocks
	sb.InodeBitmapBlocks = inodeBitmapBlocks
	sb.InodeAreaBlocks = inodeAreaBlocks
	sb.DataBitmapBlocks = dataBitmapBlocks
	sb.DataAreaBlocks = dataAreaBlocks
}

const superBlockID = 0
