package main

import (
	"fmt"
	"os"

	"github.com/KarpelesLab/easyfs"
)

// openImage opens an existing image file read/write and mounts the
// EasyFS layer on top of it. Callers must Close the returned device.
func openImage(path string) (*easyfs.FileBlockDevice, *easyfs.EasyFileSystem, error) {
	dev, err := easyfs.OpenFileBlockDevice(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening image: %w", err)
	}
	bcm := easyfs.NewBlockCacheManager(dev, 64)
	efs, err := easyfs.Open(bcm)
	if err != nil {
		dev.Close()
		return nil, nil, fmt.Errorf("reading superblock: %w", err)
	}
	return dev, efs, nil
}

func listFiles(path string) error {
	dev, efs, err := openImage(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	root := easyfs.RootInode(efs)
	names, err := root.ListDir()
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}

	for _, name := range names {
		child, found, err := root.Find(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to stat '%s': %s\n", name, err)
			continue
		}
		if !found {
			continue
		}
		size, err := child.Size()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to stat '%s': %s\n", name, err)
			continue
		}
		fmt.Printf("-r--r--r-- %8d %s\n", size, name)
	}
	return nil
}

func catFile(path, name string) error {
	dev, efs, err := openImage(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	root := easyfs.RootInode(efs)
	file, found, err := root.Find(name)
	if err != nil {
		return fmt.Errorf("looking up '%s': %w", name, err)
	}
	if !found {
		return fmt.Errorf("'%s' not found", name)
	}

	size, err := file.Size()
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	if _, err := file.ReadAt(0, buf); err != nil {
		return fmt.Errorf("reading '%s': %w", name, err)
	}
	_, err = os.Stdout.Write(buf)
	return err
}

func showInfo(path string) error {
	dev, efs, err := openImage(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	root := easyfs.RootInode(efs)
	names, err := root.ListDir()
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}

	fmt.Println("EasyFS Image Information")
	fmt.Println("=========================")
	fmt.Printf("Block size:       %d bytes\n", easyfs.BlockSize)
	fmt.Printf("File count:       %d\n", len(names))

	var totalBytes uint64
	for _, name := range names {
		child, found, err := root.Find(name)
		if err != nil || !found {
			continue
		}
		size, err := child.Size()
		if err != nil {
			continue
		}
		totalBytes += uint64(size)
	}
	fmt.Printf("Total file bytes: %d\n", totalBytes)
	return nil
}
