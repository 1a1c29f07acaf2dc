//go:build fuse

package main

import (
	"github.com/KarpelesLab/easyfs"
	"github.com/KarpelesLab/easyfs/fuseadapter"
)

func mount(efs *easyfs.EasyFileSystem, mountpoint string) error {
	server, err := fuseadapter.Root(efs, mountpoint)
	if err != nil {
		return err
	}
	server.Wait()
	return nil
}
