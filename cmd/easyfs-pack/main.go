package main

import (
	"fmt"
	"os"
)

const usage = `easyfs-pack - EasyFS CLI tool

Usage:
  easyfs-pack ls <image>                          List files in an EasyFS image
  easyfs-pack cat <image> <file>                  Display contents of a file
  easyfs-pack info <image>                        Display information about an image
  easyfs-pack pack --source <dir> --target <img>  Build a new image from a host directory
  easyfs-pack help                                Show this help message

Examples:
  easyfs-pack ls fs.img
  easyfs-pack cat fs.img hello.txt
  easyfs-pack info fs.img
  easyfs-pack pack --source ./payload --target fs.img --blocks 16384
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]

	var err error
	switch cmd {
	case "ls":
		if len(os.Args) < 3 {
			fmt.Println("Error: Missing image path")
			fmt.Println(usage)
			os.Exit(1)
		}
		err = listFiles(os.Args[2])

	case "cat":
		if len(os.Args) < 4 {
			fmt.Println("Error: Missing image path or target file")
			fmt.Println(usage)
			os.Exit(1)
		}
		err = catFile(os.Args[2], os.Args[3])

	case "info":
		if len(os.Args) < 3 {
			fmt.Println("Error: Missing image path")
			fmt.Println(usage)
			os.Exit(1)
		}
		err = showInfo(os.Args[2])

	case "pack":
		err = pack(os.Args[2:])

	case "help":
		fmt.Println(usage)
		return

	default:
		fmt.Printf("Error: Unknown command '%s'\n", cmd)
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
