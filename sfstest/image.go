// Package sfstest provides in-memory backing images for exercising the sfs
// package without touching the filesystem.
package sfstest

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/sfs"
)

// NewBlankImage returns a zero-filled, correctly-sized in-memory stream
// ready to be formatted.
func NewBlankImage(t *testing.T) io.ReadWriteSeeker {
	t.Helper()
	buf := make([]byte, sfs.TotalSize)
	return bytesextra.NewReadWriteSeeker(buf)
}

// NewFormattedImage returns an in-memory image that has already been
// formatted, along with the mounted FileSystem.
func NewFormattedImage(t *testing.T) (io.ReadWriteSeeker, *sfs.FileSystem) {
	t.Helper()
	stream := NewBlankImage(t)
	logger := log.New(io.Discard, "", 0)

	fileSystem, err := sfs.Format(stream, logger)
	require.NoError(t, err)
	return stream, fileSystem
}
