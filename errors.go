package easyfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrInvalidSuperblock is returned when block 0 does not carry the EasyFS magic.
	ErrInvalidSuperblock = errors.New("easyfs: invalid superblock, magic not found")

	// ErrNotDirectory is returned when attempting directory operations on a non-directory inode.
	ErrNotDirectory = errors.New("easyfs: not a directory")

	// ErrNotFile names a file operation attempted on a directory inode. No
	// function in this package returns it: Inode.ReadAt and Inode.WriteAt do
	// not check the inode type.
	ErrNotFile = errors.New("easyfs: not a file")

	// ErrNameTooLong is returned when a file name does not fit in a 27-byte directory entry slot.
	ErrNameTooLong = errors.New("easyfs: name longer than 27 bytes")

	// ErrNoSpace is returned when the inode bitmap or data bitmap has no free bits left.
	ErrNoSpace = errors.New("easyfs: no space left on device")

	// ErrFileTooLarge is returned when a write would grow a file past the maximum addressable size.
	ErrFileTooLarge = errors.New("easyfs: file would exceed maximum size")

	// ErrBadOffset names a write at an offset beyond the current file size. No
	// function in this package returns it: Inode.WriteAt grows the file to fit
	// the write, and DiskInode.WriteAt panics on such an offset.
	ErrBadOffset = errors.New("easyfs: write offset beyond current file size")
)
