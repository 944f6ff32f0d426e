package sfs

// Fixed geometry for every image this package manages (spec.md §3). The
// filesystem does not support online resize, so these are compile-time
// constants rather than configuration.
const (
	BlockSize   = 4096
	TotalBlocks = 32768
	TotalSize   = BlockSize * TotalBlocks

	SuperblockMagic = 0xEF53

	// DirectBlockCount is the number of direct block-map entries in an
	// inode (indices 0..11).
	DirectBlockCount = 12
	// SingleIndirectIndex is the block-map index holding the
	// single-indirect table.
	SingleIndirectIndex = 12
	// DoubleIndirectIndex is the block-map index holding the
	// double-indirect table.
	DoubleIndirectIndex = 13
	// BlockMapLength is the total number of block-map entries in an inode.
	BlockMapLength = 14

	// InodeSize is the fixed on-disk size of one inode record, in bytes.
	InodeSize = 128

	// MaxNameLength is the longest name a directory entry can hold,
	// leaving room for the terminating NUL in a 124-byte field.
	MaxNameLength = 123
	// DirEntrySize is the fixed on-disk size of one FileEntry record.
	DirEntrySize = 128

	// NumOpenFiles is the size of the in-memory open-file handle table.
	NumOpenFiles = 128

	// pointersPerBlock is P in spec.md §4.3: how many BlockIDs fit in one
	// indirect table block.
	pointersPerBlock = BlockSize / 4

	// MaxFileSize is the largest file size this addressing scheme can
	// reach: (12 + P + P^2) blocks.
	MaxFileSize = int64(DirectBlockCount+pointersPerBlock+pointersPerBlock*pointersPerBlock) * BlockSize

	// entriesPerBlock is EPB in spec.md §4.4.
	entriesPerBlock = BlockSize / DirEntrySize

	// maxDirectoryEntries is the hard cap on directory size: directories
	// only ever use direct blocks (spec.md §4.4, §9).
	maxDirectoryEntries = entriesPerBlock * DirectBlockCount
)

// inode flag bits (spec.md §3).
const (
	inodeFlagInUse = 1 << 0
	inodeTypeMask  = 0x6
	inodeTypeFile  = 0x2
	inodeTypeDir   = 0x4
)

// InodeID identifies an inode by its position in the inode table. Inode 0
// is always the root directory (spec.md §3).
type InodeID uint32

const RootInodeID InodeID = 0
