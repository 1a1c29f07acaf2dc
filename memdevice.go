package easyfs

import (
	"fmt"
	"os"
)

// MemBlockDevice is a BlockDevice backed entirely by memory, the Go
// equivalent of the original easy-fs crate's test_helper.rs block device
// used throughout its own test suite. It lives in a non-test file so that
// it is part of the package's exported API; within this repository only
// the package's own tests use it.
type MemBlockDevice struct {
	blocks [][]byte
}

// NewMemBlockDevice allocates a zeroed, in-memory device of the given
// total block count.
func NewMemBlockDevice(totalBlocks uint32) *MemBlockDevice {
	blocks := make([][]byte, totalBlocks)
	for i := range blocks {
		blocks[i] = make([]byte, BlockSize)
	}
	return &MemBlockDevice{blocks: blocks}
}

func (d *MemBlockDevice) ReadBlock(id uint32, buf []byte) error {
	checkBuf(buf)
	if int(id) >= len(d.blocks) {
		return fmt.Errorf("easyfs: block %d out of range (device has %d blocks)", id, len(d.blocks))
	}
	copy(buf, d.blocks[id])
	return nil
}

func (d *MemBlockDevice) WriteBlock(id uint32, buf []byte) error {
	checkBuf(buf)
	if int(id) >= len(d.blocks) {
		return fmt.Errorf("easyfs: block %d out of range (device has %d blocks)", id, len(d.blocks))
	}
	copy(d.blocks[id], buf)
	return nil
}

// TotalBlocks returns the number of blocks backing this device.
func (d *MemBlockDevice) TotalBlocks() uint32 { return uint32(len(d.blocks)) }

// FileBlockDevice is a BlockDevice backed by a host file, seeking to
// block_id*BlockSize for every access (spec.md §6.1: "a file-backed shim
// in host mode that seeks to block_id × 512 and reads or writes one
// block"). This is what cmd/easyfs-pack and cmd/easyfs-mount open a
// fs.img through.
type FileBlockDevice struct {
	f *os.File
}

// OpenFileBlockDevice opens an existing image file for read/write block access.
func OpenFileBlockDevice(path string) (*FileBlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileBlockDevice{f: f}, nil
}

// CreateFileBlockDevice creates (or truncates) an image file of exactly
// totalBlocks*BlockSize bytes.
func CreateFileBlockDevice(path string, totalBlocks uint32) (*FileBlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(totalBlocks) * BlockSize); err != nil {
		f.Close()
		return nil, err
	}
	return &FileBlockDevice{f: f}, nil
}

func (d *FileBlockDevice) ReadBlock(id uint32, buf []byte) error {
	checkBuf(buf)
	_, err := d.f.ReadAt(buf, int64(id)*BlockSize)
	return err
}

func (d *FileBlockDevice) WriteBlock(id uint32, buf []byte) error {
	checkBuf(buf)
	_, err := d.f.WriteAt(buf, int64(id)*BlockSize)
	return err
}

// Close closes the underlying host file.
func (d *FileBlockDevice) Close() error { return d.f.Close() }
