package sfs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// superblock is the fixed record stored in block 0 (spec.md §3). Its
// counters must always equal the actual bitmap/inode-flag populations;
// every allocator mutation keeps that true before returning.
type superblock struct {
	Magic           uint32
	BlockSizeBytes  uint32
	NumBlocks       uint32
	NumInodes       uint32
	NumInodeBlocks  uint32
	NumFreeBlocks   uint32
	NumFreeInodes   uint32
	FirstInodeBlock BlockID
	FirstDataBlock  BlockID
	BitmapBlock     BlockID
}

func (s *superblock) encode(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
	w := bytewriter.New(buffer)
	binary.Write(w, binary.LittleEndian, s.Magic)
	binary.Write(w, binary.LittleEndian, s.BlockSizeBytes)
	binary.Write(w, binary.LittleEndian, s.NumBlocks)
	binary.Write(w, binary.LittleEndian, s.NumInodes)
	binary.Write(w, binary.LittleEndian, s.NumInodeBlocks)
	binary.Write(w, binary.LittleEndian, s.NumFreeBlocks)
	binary.Write(w, binary.LittleEndian, s.NumFreeInodes)
	binary.Write(w, binary.LittleEndian, uint32(s.FirstInodeBlock))
	binary.Write(w, binary.LittleEndian, uint32(s.FirstDataBlock))
	binary.Write(w, binary.LittleEndian, uint32(s.BitmapBlock))
}

func decodeSuperblock(buffer []byte) *superblock {
	r := byteReader{buf: buffer}
	s := &superblock{}
	s.Magic = r.uint32()
	s.BlockSizeBytes = r.uint32()
	s.NumBlocks = r.uint32()
	s.NumInodes = r.uint32()
	s.NumInodeBlocks = r.uint32()
	s.NumFreeBlocks = r.uint32()
	s.NumFreeInodes = r.uint32()
	s.FirstInodeBlock = BlockID(r.uint32())
	s.FirstDataBlock = BlockID(r.uint32())
	s.BitmapBlock = BlockID(r.uint32())
	return s
}

// byteReader is a minimal sequential little-endian reader over an
// in-memory buffer, used for the handful of fixed records this package
// decodes (superblock, inode, directory entry).
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *byteReader) uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *byteReader) int64() int64 {
	return int64(r.uint64())
}

func (r *byteReader) bytes(n int) []byte {
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v
}

// deriveGeometry computes N, the number of inode table blocks, so that the
// resulting inode count can individually address every remaining data
// block (spec.md §3): N = (TOTAL_BLOCKS - 1) / (BLOCK_SIZE/sizeof(Inode) + 1).
func deriveGeometry() (numInodeBlocks, numInodes uint32) {
	const inodesPerBlock = BlockSize / InodeSize
	numInodeBlocks = uint32((TotalBlocks - 1) / (inodesPerBlock + 1))
	numInodes = numInodeBlocks * inodesPerBlock
	return
}

// formatSuperblock builds a fresh superblock for a newly formatted image.
func formatSuperblock() *superblock {
	numInodeBlocks, numInodes := deriveGeometry()
	firstInodeBlock := BlockID(1)
	bitmapBlock := firstInodeBlock + BlockID(numInodeBlocks)
	firstDataBlock := bitmapBlock + 1

	return &superblock{
		Magic:           SuperblockMagic,
		BlockSizeBytes:  BlockSize,
		NumBlocks:       TotalBlocks,
		NumInodes:       numInodes,
		NumInodeBlocks:  numInodeBlocks,
		NumFreeBlocks:   TotalBlocks - uint32(firstDataBlock),
		NumFreeInodes:   numInodes,
		FirstInodeBlock: firstInodeBlock,
		FirstDataBlock:  firstDataBlock,
		BitmapBlock:     bitmapBlock,
	}
}
