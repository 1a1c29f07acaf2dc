package easyfs

// Inode is the user-facing VFS handle: a cheap {disk block id, offset,
// shared EFS} triple (spec.md §3, §4.9). Every mutating operation takes
// the EFS lock and runs inside a sync transaction.
type Inode struct {
	blockID uint32
	offset  int
	efs     *EasyFileSystem
}

// RootInode returns a handle to inode 0, the filesystem's only directory.
func RootInode(efs *EasyFileSystem) *Inode {
	blockID, offset := efs.diskInodePos(0)
	return &Inode{blockID: blockID, offset: offset, efs: efs}
}

// readDisk copies out the DiskInode this handle points at.
func (ino *Inode) readDisk() (DiskInode, error) {
	return ReadBlock(ino.efs.bcm, ino.blockID, ino.offset, func(d *DiskInode) DiskInode { return *d })
}

// writeDisk overwrites the DiskInode this handle points at with d.
func (ino *Inode) writeDisk(d DiskInode) error {
	_, err := WriteBlock(ino.efs.bcm, ino.blockID, ino.offset, func(slot *DiskInode) struct{} {
		*slot = d
		return struct{}{}
	})
	return err
}

// IsDir reports whether this handle names a directory.
func (ino *Inode) IsDir() (bool, error) {
	d, err := ino.readDisk()
	if err != nil {
		return false, err
	}
	return d.IsDir(), nil
}

// IsFile reports whether this handle names a regular file.
func (ino *Inode) IsFile() (bool, error) {
	d, err := ino.readDisk()
	if err != nil {
		return false, err
	}
	return d.IsFile(), nil
}

// Size returns the current byte size of this handle's file.
func (ino *Inode) Size() (uint32, error) {
	d, err := ino.readDisk()
	if err != nil {
		return 0, err
	}
	return d.Size, nil
}

// Create allocates a new, empty file named name in this (root) directory
// and returns a handle to it. It returns (nil, false, nil) if name already
// exists — an expected "no" result per spec.md §7, not an error.
func (ino *Inode) Create(name string) (*Inode, bool, error) {
	if len(name) > MaxNameLen {
		return nil, false, ErrNameTooLong
	}

	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	root, err := ino.readDisk()
	if err != nil {
		return nil, false, err
	}
	if !root.IsDir() {
		return nil, false, ErrNotDirectory
	}

	_, found, err := root.InodeIDByName(name, efs.bcm)
	if err != nil {
		return nil, false, err
	}
	if found {
		return nil, false, nil
	}

	var newID uint32
	err = efs.SyncTransaction(func(efs *EasyFileSystem) error {
		id, err := efs.NewInodeNolock(FileInode)
		if err != nil {
			return err
		}
		newID = id

		root, err := ino.readDisk()
		if err != nil {
			return err
		}
		oldSize := root.Size
		newSize := oldSize + DirEntrySize
		if err := efs.IncreaseSizeNolock(newSize, &root); err != nil {
			return err
		}

		entry, err := NewDirEntry(name, id)
		if err != nil {
			return err
		}
		raw := entry.Bytes()
		if _, err := root.WriteAt(int(oldSize), raw[:], efs.bcm); err != nil {
			return err
		}
		return ino.writeDisk(root)
	})
	if err != nil {
		return nil, false, err
	}

	blockID, offset := efs.diskInodePos(newID)
	return &Inode{blockID: blockID, offset: offset, efs: efs}, true, nil
}

// Find looks up name in this (root) directory. It returns (nil, false,
// nil) if name is absent — an expected "no" result, not an error.
func (ino *Inode) Find(name string) (*Inode, bool, error) {
	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	root, err := ino.readDisk()
	if err != nil {
		return nil, false, err
	}
	if !root.IsDir() {
		return nil, false, ErrNotDirectory
	}

	id, found, err := root.InodeIDByName(name, efs.bcm)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	blockID, offset := efs.diskInodePos(id)
	return &Inode{blockID: blockID, offset: offset, efs: efs}, true, nil
}

// ReadAt delegates to the underlying DiskInode's ReadAt.
func (ino *Inode) ReadAt(offset int, buf []byte) (int, error) {
	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	d, err := ino.readDisk()
	if err != nil {
		return 0, err
	}
	return d.ReadAt(offset, buf, efs.bcm)
}

// WriteAt grows the file if offset+len(buf) exceeds its current size, then
// writes buf at offset (spec.md §4.9).
func (ino *Inode) WriteAt(offset int, buf []byte) (int, error) {
	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	needed := uint64(offset) + uint64(len(buf))
	if needed > MaxFileSize {
		return 0, ErrFileTooLarge
	}

	var n int
	err := efs.SyncTransaction(func(efs *EasyFileSystem) error {
		d, err := ino.readDisk()
		if err != nil {
			return err
		}
		if needed > uint64(d.Size) {
			if err := efs.IncreaseSizeNolock(uint32(needed), &d); err != nil {
				return err
			}
		}
		n, err = d.WriteAt(offset, buf, efs.bcm)
		if err != nil {
			return err
		}
		return ino.writeDisk(d)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Clear deallocates every data block owned by this file and resets its
// size to zero (spec.md §4.9).
func (ino *Inode) Clear() error {
	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	return efs.SyncTransaction(func(efs *EasyFileSystem) error {
		d, err := ino.readDisk()
		if err != nil {
			return err
		}
		freed, err := d.ClearSize(efs.bcm)
		if err != nil {
			return err
		}
		for _, b := range freed {
			if err := efs.DeallocData(b); err != nil {
				return err
			}
		}
		return ino.writeDisk(d)
	})
}

// ListDir returns this directory's entry names in on-disk (insertion)
// order (spec.md §4.9). Precondition: IsDir().
func (ino *Inode) ListDir() ([]string, error) {
	efs := ino.efs
	efs.mu.Lock()
	defer efs.mu.Unlock()

	d, err := ino.readDisk()
	if err != nil {
		return nil, err
	}
	if !d.IsDir() {
		return nil, ErrNotDirectory
	}

	count := d.Size / DirEntrySize
	names := make([]string, 0, count)
	var raw [DirEntrySize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := d.ReadAt(int(i*DirEntrySize), raw[:], efs.bcm); err != nil {
			return nil, err
		}
		names = append(names, DirEntryFromBytes(raw).Name())
	}
	return names, nil
}
