package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/KarpelesLab/easyfs"
)

// sourceFile is one file read off disk, ready to be written into the image.
type sourceFile struct {
	name string
	data []byte
}

// pack builds a fresh EasyFS image from the top-level files of a host
// directory. Subdirectories are skipped: EasyFS has no nested-directory
// concept (spec.md §2, single root directory).
func pack(args []string) error {
	fs := pflag.NewFlagSet("pack", pflag.ExitOnError)
	source := fs.String("source", "", "host directory to pack")
	target := fs.String("target", "", "image file to create")
	blocks := fs.Uint32("blocks", 16384, "total blocks in the image")
	inodeBitmapBlocks := fs.Uint32("inode-bitmap-blocks", 1, "inode bitmap blocks (each covers 4096 inodes)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || *target == "" {
		return fmt.Errorf("--source and --target are required")
	}

	entries, err := os.ReadDir(*source)
	if err != nil {
		return fmt.Errorf("reading source directory: %w", err)
	}

	// Fan out file reads, since the host filesystem I/O needs no
	// coordination; the EasyFS writes below go through its own single
	// lock so they stay sequential regardless.
	files := make([]sourceFile, 0, len(entries))
	var g errgroup.Group
	var mu sourceFileCollector
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entry := entry
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(*source, entry.Name()))
			if err != nil {
				return fmt.Errorf("reading '%s': %w", entry.Name(), err)
			}
			mu.add(sourceFile{name: entry.Name(), data: data})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	files = mu.take()

	dev, err := easyfs.CreateFileBlockDevice(*target, *blocks)
	if err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	defer dev.Close()

	bcm := easyfs.NewBlockCacheManager(dev, 64)
	efs, err := easyfs.Create(bcm, *blocks, *inodeBitmapBlocks)
	if err != nil {
		return fmt.Errorf("formatting image: %w", err)
	}

	root := easyfs.RootInode(efs)
	for _, f := range files {
		child, ok, err := root.Create(f.name)
		if err != nil {
			return fmt.Errorf("creating '%s': %w", f.name, err)
		}
		if !ok {
			return fmt.Errorf("duplicate file name '%s'", f.name)
		}
		if _, err := child.WriteAt(0, f.data); err != nil {
			return fmt.Errorf("writing '%s': %w", f.name, err)
		}
	}

	fmt.Printf("packed %d files into %s (%d blocks)\n", len(files), *target, *blocks)
	return nil
}

// sourceFileCollector serializes appends from errgroup.Group's concurrent
// goroutines into a single slice.
type sourceFileCollector struct {
	mu    sync.Mutex
	files []sourceFile
}

func (c *sourceFileCollector) add(f sourceFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, f)
}

func (c *sourceFileCollector) take() []sourceFile {
	return c.files
}
