//go:build !fuse

package main

import (
	"errors"

	"github.com/KarpelesLab/easyfs"
)

func mount(efs *easyfs.EasyFileSystem, mountpoint string) error {
	return errors.New("easyfs-mount: built without the fuse tag; rebuild with -tags fuse")
}
