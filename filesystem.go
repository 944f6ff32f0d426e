package sfs

import (
	"io"
	"log"
	"os"
)

// FileSystem is the explicit, single-owner context every operation in this
// package runs through (spec.md §9's "explicit context object" design
// note): the backing device, superblock, allocators, and open-file table
// all live here instead of behind package-level globals, so more than one
// image can be mounted in a process at once.
type FileSystem struct {
	device  *BlockDevice
	sb      *superblock
	blocks  *blockAllocator
	inodes  *inodeStore
	dirs    *dirStore
	res     *resolver
	handles handleTable
	logger  *log.Logger
}

// Mount opens the image on stream. A stream shorter than TotalSize is first
// extended to it. It then reads the superblock from block 0; if the magic
// number doesn't match, the image is formatted via Format (spec.md §6).
func Mount(stream io.ReadWriteSeeker, logger *log.Logger) (*FileSystem, error) {
	length, err := StreamLength(stream)
	if err != nil {
		return nil, err
	}
	if length < TotalSize {
		if err := EnsureSize(stream, TotalSize); err != nil {
			return nil, err
		}
	}

	device := NewBlockDevice(stream, BlockSize, TotalBlocks)

	buf := device.NewBlockBuffer()
	if err := device.ReadBlock(0, buf); err != nil {
		return nil, err
	}
	sb := decodeSuperblock(buf)
	if sb.Magic != SuperblockMagic {
		return Format(stream, logger)
	}

	return newFileSystem(device, sb, logger)
}

// Format initializes a fresh image on stream: it extends the stream to the
// fixed total size if needed, writes a new superblock, zeroes the bitmap
// and inode table, marks the metadata blocks (superblock, inode table,
// bitmap) used in the bitmap, and creates the root directory inode (spec.md §6,
// mirroring original_source main()'s format-on-bad-magic branch).
func Format(stream io.ReadWriteSeeker, logger *log.Logger) (*FileSystem, error) {
	length, err := StreamLength(stream)
	if err != nil {
		return nil, err
	}
	if length < TotalSize {
		if seeker, ok := stream.(io.WriteSeeker); ok {
			if err := EnsureSize(seeker, TotalSize); err != nil {
				return nil, err
			}
		}
	}

	device := NewBlockDevice(stream, BlockSize, TotalBlocks)
	sb := formatSuperblock()

	zero := device.NewBlockBuffer()
	for i := sb.FirstInodeBlock; i < sb.FirstDataBlock; i++ {
		if err := device.WriteBlock(i, zero); err != nil {
			return nil, err
		}
	}

	fs, err := newFileSystem(device, sb, logger)
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(sb.FirstDataBlock); i++ {
		fs.blocks.bits.Set(i, true)
	}
	if err := fs.blocks.flush(); err != nil {
		return nil, err
	}

	rootID, err := fs.inodes.AllocateInode()
	if err != nil {
		return nil, err
	}
	if rootID != RootInodeID {
		return nil, ErrCorrupted
	}
	sb.NumFreeInodes--

	rootBlock, err := fs.blocks.AllocateBlock()
	if err != nil {
		return nil, err
	}
	if err := device.WriteBlock(rootBlock, zero); err != nil {
		return nil, err
	}

	now := currentTime()
	root := &inode{
		Flags:      inodeFlagInUse | inodeTypeDir,
		Size:       BlockSize,
		AccessTime: now,
		ModifyTime: now,
		ChangeTime: now,
	}
	root.Blocks[0] = rootBlock
	if err := fs.inodes.Write(RootInodeID, root); err != nil {
		return nil, err
	}
	if err := fs.writeSuperblock(); err != nil {
		return nil, err
	}

	fs.logger.Printf("formatted new image: %d inodes, %d data blocks", sb.NumInodes, sb.NumFreeBlocks)
	return fs, nil
}

func newFileSystem(device *BlockDevice, sb *superblock, logger *log.Logger) (*FileSystem, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "sfs: ", log.LstdFlags)
	}

	alloc, err := loadBlockAllocator(device, sb)
	if err != nil {
		return nil, err
	}
	inodes := &inodeStore{device: device, sb: sb}
	dirs := &dirStore{device: device, alloc: alloc, inodes: inodes}
	res := &resolver{inodes: inodes, dirs: dirs}

	return &FileSystem{
		device: device,
		sb:     sb,
		blocks: alloc,
		inodes: inodes,
		dirs:   dirs,
		res:    res,
		logger: logger,
	}, nil
}

func (fs *FileSystem) writeSuperblock() error {
	buf := fs.device.NewBlockBuffer()
	fs.sb.encode(buf)
	return fs.device.WriteBlock(0, buf)
}
