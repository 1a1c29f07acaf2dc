package easyfs

import (
	"fmt"
	"unsafe"
)

// CacheSlot is one of the BlockCacheManager's N fixed in-memory buffers
// (spec.md §9, "Cache slot identity across evictions"). The slot's
// backing array never moves; only the BlockCache that currently occupies
// it changes across evictions.
type CacheSlot struct {
	buf [BlockSize]byte
}

// BlockCache wraps one CacheSlot while it holds the contents of a specific
// device block, offering typed in-place views at arbitrary offsets
// (spec.md §4.2). Every BlockCache is guarded by its own Locker, per the
// lock hierarchy in spec.md §5.
type BlockCache struct {
	mu      Locker
	slot    *CacheSlot
	blockID uint32
	device  BlockDevice
	dirty   bool
	access  uint64
}

// newBlockCache loads blockID from device into slot, constructing a fresh,
// clean BlockCache (spec.md §4.2, "new(block_id, device, slot)").
func newBlockCache(blockID uint32, device BlockDevice, slot *CacheSlot, locker Locker) (*BlockCache, error) {
	if err := device.ReadBlock(blockID, slot.buf[:]); err != nil {
		return nil, err
	}
	return &BlockCache{mu: locker, slot: slot, blockID: blockID, device: device}, nil
}

// checkView asserts the bounds and alignment precondition spec.md §4.2
// requires of value_ref/value_mut: offset+sizeof(T) <= BlockSize, and the
// address naturally aligned for T. Both are programmer errors and panic.
func checkView(offset int, size, align uintptr) {
	if offset < 0 || uintptr(offset)+size > BlockSize {
		panic(fmt.Sprintf("easyfs: cache view out of bounds: offset=%d size=%d", offset, size))
	}
	if uintptr(offset)%align != 0 {
		panic(fmt.Sprintf("easyfs: cache view misaligned: offset=%d align=%d", offset, align))
	}
}

// ValueRef returns an in-place, read-only reference of type T at offset
// inside bc's slot buffer. Callers must hold bc's lock (Read/Write below
// do this for the common case).
func ValueRef[T any](bc *BlockCache, offset int) *T {
	var zero T
	checkView(offset, unsafe.Sizeof(zero), unsafe.Alignof(zero))
	return (*T)(unsafe.Pointer(&bc.slot.buf[offset]))
}

// ValueMut returns an in-place, mutable reference of type T at offset, and
// unconditionally marks the slot dirty (spec.md §4.2: "sets dirty := true
// unconditionally on call, even if the caller does not in fact write").
func ValueMut[T any](bc *BlockCache, offset int) *T {
	ref := ValueRef[T](bc, offset)
	bc.dirty = true
	return ref
}

// Read locks bc, applies f to a typed read-only view at offset, and
// returns f's result. This is the primary entry point upper layers use to
// inspect a cached block (spec.md §4.2, "read<T,V>").
func Read[T, V any](bc *BlockCache, offset int, f func(*T) V) V {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return f(ValueRef[T](bc, offset))
}

// Write locks bc, applies f to a typed mutable view at offset (marking
// the slot dirty), and returns f's result (spec.md §4.2, "write<T,V>").
func Write[T, V any](bc *BlockCache, offset int, f func(*T) V) V {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return f(ValueMut[T](bc, offset))
}

// syncToDevice writes the slot back if dirty and clears the dirty bit
// (spec.md §4.2, "sync_to_device"). Caller must hold bc's lock.
func (bc *BlockCache) syncToDevice() error {
	if !bc.dirty {
		return nil
	}
	if err := bc.device.WriteBlock(bc.blockID, bc.slot.buf[:]); err != nil {
		return err
	}
	bc.dirty = false
	return nil
}

// SyncToDevice locks bc and flushes it if dirty. Exported for BCM.sync_all
// and for Release.
func (bc *BlockCache) SyncToDevice() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.syncToDevice()
}

// Release flushes bc to the device, matching spec.md §4.2's "Destruction
// MUST flush: dropping a BlockCache calls sync_to_device()" — Go has no
// destructors, so the BCM calls Release explicitly wherever a slot is
// about to be repurposed.
func (bc *BlockCache) Release() error {
	return bc.SyncToDevice()
}

func (bc *BlockCache) updateAccessTime(t uint64) { bc.access = t }
func (bc *BlockCache) accessTime() uint64        { return bc.access }

// BlockID returns the device block this cache currently holds.
func (bc *BlockCache) BlockID() uint32 { return bc.blockID }
