//go:build fuse

// Package fuseadapter mounts a read-only EasyFS image with go-fuse/v2,
// grounded on the teacher's inode_fuse.go (Lookup/Open/OpenDir/ReadDir
// shape) but built on the higher-level fs.Inode node API since EasyFS's
// single flat root directory has none of squashfs's multi-type inode
// reference machinery to carry over.
package fuseadapter

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/KarpelesLab/easyfs"
)

// Root mounts an EasyFS image read-only and returns the running server
// without waiting; the caller blocks on server.Wait() until the mount is
// unmounted. It mirrors the original's easy-fs-fuse example binary.
func Root(efs *easyfs.EasyFileSystem, mountpoint string) (*fuse.Server, error) {
	root := &dirNode{ino: easyfs.RootInode(efs)}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     "easyfs",
			Name:       "easyfs",
			Debug:      easyfs.Debug,
			AllowOther: false,
		},
	}
	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// dirNode represents the single root directory every EasyFS image has.
type dirNode struct {
	fs.Inode
	ino *easyfs.Inode
}

var _ fs.NodeLookuper = (*dirNode)(nil)
var _ fs.NodeReaddirer = (*dirNode)(nil)
var _ fs.NodeOpendirer = (*dirNode)(nil)
var _ fs.NodeGetattrer = (*dirNode)(nil)

func (d *dirNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

func (d *dirNode) Opendir(ctx context.Context) syscall.Errno {
	// Read-only mount; nothing to prepare. Matches the teacher's
	// "always ok, cache the open" OpenDir on a read-only filesystem.
	return 0
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	target, found, err := d.ino.Find(name)
	if err != nil {
		return nil, syscall.EIO
	}
	if !found {
		return nil, syscall.ENOENT
	}
	fillEntry(target, out)
	child := &fileNode{ino: target}
	stable := fs.StableAttr{Mode: syscall.S_IFREG}
	return d.NewInode(ctx, child, stable), 0
}

func (d *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := d.ino.ListDir()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFREG})
	}
	return fs.NewListDirStream(entries), 0
}

// fileNode represents one regular file in the root directory.
type fileNode struct {
	fs.Inode
	ino *easyfs.Inode
}

var _ fs.NodeOpener = (*fileNode)(nil)
var _ fs.NodeReader = (*fileNode)(nil)
var _ fs.NodeGetattrer = (*fileNode)(nil)

func (f *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	// Read-only: tell the kernel it can cache reads between opens,
	// same reasoning as the teacher's FOPEN_KEEP_CACHE on a static image.
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (f *fileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fillAttr(f.ino, &out.Attr)
	return 0
}

func (f *fileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.ino.ReadAt(int(off), dest)
	if err != nil {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func fillEntry(ino *easyfs.Inode, out *fuse.EntryOut) {
	fillAttr(ino, &out.Attr)
	out.SetEntryTimeout(0)
	out.SetAttrTimeout(0)
}

func fillAttr(ino *easyfs.Inode, attr *fuse.Attr) {
	size, err := ino.Size()
	if err != nil {
		return
	}
	isDir, _ := ino.IsDir()
	attr.Size = uint64(size)
	if isDir {
		attr.Mode = syscall.S_IFDIR | 0o555
	} else {
		attr.Mode = syscall.S_IFREG | 0o444
	}
}
