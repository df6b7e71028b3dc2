package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dmitri-k/fatshell/fat32"
	"github.com/dmitri-k/fatshell/shell"
)

func main() {
	app := cli.App{
		Name:      "fatshell",
		Usage:     "Interactively browse and edit a raw FAT32 disk image",
		ArgsUsage: "IMAGE_FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "readonly",
				Usage: "mount the image without allowing any mutating command",
			},
		},
		Action: runShell,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func runShell(context *cli.Context) error {
	if context.NArg() != 1 {
		return cli.Exit("Usage: fatshell [--readonly] IMAGE_FILE", 1)
	}
	imagePath := context.Args().Get(0)
	readOnly := context.Bool("readonly")

	flags := os.O_RDWR
	if readOnly {
		flags = os.O_RDONLY
	}

	imageFile, err := os.OpenFile(imagePath, flags, 0)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: cannot open image file '%s': %s", imagePath, err), 1)
	}
	defer imageFile.Close()

	vol, err := fat32.Mount(readWriteSeekerOf(imageFile, readOnly))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: invalid FAT32 file system: %s", err), 1)
	}

	sh := shell.New(vol, os.Stdin, os.Stdout, os.Stderr, readOnly)
	return sh.Run()
}

// readWriteSeekerOf adapts an *os.File opened read-only into something
// that still satisfies fat32.Image; its Write is never reached because the
// shell refuses every mutating command once readOnly is set.
func readWriteSeekerOf(f *os.File, readOnly bool) fat32.Image {
	if !readOnly {
		return f
	}
	return readOnlyImage{f}
}

type readOnlyImage struct {
	*os.File
}

func (readOnlyImage) Write([]byte) (int, error) {
	return 0, fmt.Errorf("image is mounted read-only")
}
