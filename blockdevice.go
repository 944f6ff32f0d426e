package sfs

import (
	"fmt"
	"io"
)

// BlockID identifies a fixed-size block in the image. 0 is reserved for
// the superblock and doubles as the "unallocated" sentinel everywhere a
// block map entry is stored (spec.md §3).
type BlockID uint32

// BlockDevice is a thin abstraction layer around the backing image stream
// that makes it look like an array of fixed-size blocks. It never buffers:
// every WriteBlock is flushed to the underlying stream before returning,
// so a later ReadBlock always observes it (spec.md §4.1).
//
// Out-of-range block ids are a programming error in every caller in this
// package (the resolver, allocators, and inode store all check bounds
// before reaching here), so BlockDevice panics instead of returning a
// recoverable error.
type BlockDevice struct {
	stream      io.ReadWriteSeeker
	blockSize   uint
	totalBlocks uint
}

// NewBlockDevice wraps stream as a block device with the given geometry.
func NewBlockDevice(stream io.ReadWriteSeeker, blockSize, totalBlocks uint) *BlockDevice {
	return &BlockDevice{stream: stream, blockSize: blockSize, totalBlocks: totalBlocks}
}

func (d *BlockDevice) checkBounds(id BlockID) {
	if uint(id) >= d.totalBlocks {
		panic(fmt.Sprintf("block id %d out of range [0, %d)", id, d.totalBlocks))
	}
}

func (d *BlockDevice) offsetOf(id BlockID) int64 {
	return int64(id) * int64(d.blockSize)
}

// ReadBlock fills buffer (which must be exactly BlockSize() bytes long)
// with the contents of block id.
func (d *BlockDevice) ReadBlock(id BlockID, buffer []byte) error {
	d.checkBounds(id)
	if uint(len(buffer)) != d.blockSize {
		panic(fmt.Sprintf("buffer must be %d bytes, got %d", d.blockSize, len(buffer)))
	}

	if _, err := d.stream.Seek(d.offsetOf(id), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(d.stream, buffer)
	return err
}

// WriteBlock writes buffer (exactly BlockSize() bytes) into block id.
func (d *BlockDevice) WriteBlock(id BlockID, buffer []byte) error {
	d.checkBounds(id)
	if uint(len(buffer)) != d.blockSize {
		panic(fmt.Sprintf("buffer must be %d bytes, got %d", d.blockSize, len(buffer)))
	}

	if _, err := d.stream.Seek(d.offsetOf(id), io.SeekStart); err != nil {
		return err
	}
	_, err := d.stream.Write(buffer)
	return err
}

// BlockSize returns the fixed size of a block, in bytes.
func (d *BlockDevice) BlockSize() uint { return d.blockSize }

// TotalBlocks returns the total number of blocks addressable on this device.
func (d *BlockDevice) TotalBlocks() uint { return d.totalBlocks }

// NewBlockBuffer allocates a zeroed buffer sized for a single block.
func (d *BlockDevice) NewBlockBuffer() []byte {
	return make([]byte, d.blockSize)
}

// EnsureSize extends the backing stream to at least totalSize bytes by
// writing a single byte at the last offset, matching the original
// implementation's sparse-extension trick (spec.md §6) instead of writing
// the whole region out.
func EnsureSize(stream io.WriteSeeker, totalSize int64) error {
	if totalSize <= 0 {
		return nil
	}
	if _, err := stream.Seek(totalSize-1, io.SeekStart); err != nil {
		return err
	}
	_, err := stream.Write([]byte{0})
	return err
}

// StreamLength returns the current length of stream, in bytes.
func StreamLength(stream io.Seeker) (int64, error) {
	length, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	return length, nil
}
