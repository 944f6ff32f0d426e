package sfs

import (
	"github.com/boljen/go-bitmap"
)

// blockAllocator manages the single-block free-block bitmap (spec.md §4.2).
// One bit per data block, indexed from block 0 of the whole device (bits
// below FirstDataBlock are always 1/"used" and never touched).
type blockAllocator struct {
	device *BlockDevice
	sb     *superblock
	bits   bitmap.Bitmap
}

func loadBlockAllocator(device *BlockDevice, sb *superblock) (*blockAllocator, error) {
	buf := device.NewBlockBuffer()
	if err := device.ReadBlock(sb.BitmapBlock, buf); err != nil {
		return nil, err
	}
	return &blockAllocator{device: device, sb: sb, bits: bitmap.Bitmap(buf)}, nil
}

func (a *blockAllocator) flush() error {
	return a.device.WriteBlock(a.sb.BitmapBlock, []byte(a.bits))
}

// AllocateBlock finds the first free block, marks it used, decrements the
// free-block counter, and flushes the bitmap before returning (spec.md
// §4.2's "bitmap write happens before the block is handed to a caller").
// It does not zero the block's contents; callers do that if needed.
func (a *blockAllocator) AllocateBlock() (BlockID, error) {
	if a.sb.NumFreeBlocks == 0 {
		return 0, ErrNoSpace
	}

	total := int(a.device.TotalBlocks())
	for i := int(a.sb.FirstDataBlock); i < total; i++ {
		if !a.bits.Get(i) {
			a.bits.Set(i, true)
			if err := a.flush(); err != nil {
				return 0, err
			}
			a.sb.NumFreeBlocks--
			return BlockID(i), nil
		}
	}
	return 0, ErrNoSpace
}

// FreeBlock marks id free again. Freeing a reserved block (superblock,
// inode table, bitmap itself) is a programming error, not a recoverable
// condition, since no caller in this package ever should (spec.md §4.2).
func (a *blockAllocator) FreeBlock(id BlockID) error {
	if id == 0 || id < a.sb.FirstDataBlock {
		panic("attempt to free a reserved block")
	}
	if !a.bits.Get(int(id)) {
		return nil
	}
	a.bits.Set(int(id), false)
	if err := a.flush(); err != nil {
		return err
	}
	a.sb.NumFreeBlocks++
	return nil
}
