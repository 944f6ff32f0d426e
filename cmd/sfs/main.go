package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/sfs"
)

func main() {
	app := cli.App{
		Name:  "sfs",
		Usage: "Mount a flat-file block filesystem image",
		Commands: []*cli.Command{
			{
				Name:      "mount",
				Usage:     "Mount an existing or new image at a directory",
				Action:    mountImage,
				ArgsUsage: "IMAGE_PATH MOUNT_POINT",
			},
			{
				Name:      "format",
				Usage:     "Format a fresh image file",
				Action:    formatImage,
				ArgsUsage: "IMAGE_PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// mountImage validates its positional arguments the way original_source's
// main() does (fewer than two arguments, or either one starting with "-",
// is a usage error), opens the image, and mounts it. Binding the resulting
// *sfs.FileSystem to an actual kernel bridge is out of scope here; this
// command's job ends at handing back a mounted filesystem ready to drive.
func mountImage(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: sfs mount IMAGE_PATH MOUNT_POINT", 1)
	}
	imagePath := c.Args().Get(0)
	mountPoint := c.Args().Get(1)
	if len(imagePath) == 0 || imagePath[0] == '-' || len(mountPoint) == 0 || mountPoint[0] == '-' {
		return cli.Exit("usage: sfs mount IMAGE_PATH MOUNT_POINT", 1)
	}

	f, err := os.OpenFile(imagePath, os.O_RDWR, 0o644)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	logger := log.New(os.Stderr, "sfs: ", log.LstdFlags)
	fileSystem, err := sfs.Mount(f, logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Printf("mounted %s at %s", imagePath, mountPoint)
	_ = fileSystem
	return nil
}

func formatImage(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: sfs format IMAGE_PATH", 1)
	}
	imagePath := c.Args().Get(0)

	f, err := os.OpenFile(imagePath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	logger := log.New(os.Stderr, "sfs: ", log.LstdFlags)
	if _, err := sfs.Format(f, logger); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
