// Command easyfs-mount mounts an EasyFS image read-only via FUSE,
// grounded on the original easy-fs-fuse example (original_source/easy-fs/examples/fuse.rs).
//
// Build with -tags fuse; the fuseadapter package and its go-fuse/v2
// dependency are gated behind that tag.
package main

import (
	"fmt"
	"os"

	"github.com/KarpelesLab/easyfs"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <image> <mountpoint>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(imagePath, mountpoint string) error {
	dev, err := easyfs.OpenFileBlockDevice(imagePath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer dev.Close()

	bcm := easyfs.NewBlockCacheManager(dev, 256)
	efs, err := easyfs.Open(bcm)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}

	return mount(efs, mountpoint)
}
