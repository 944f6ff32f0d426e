package sfs

import (
	"encoding/binary"

	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"
)

// inode is the decoded form of one 128-byte on-disk inode record (spec.md
// §3): flags, size, child count (directories only), three poxis timestamps,
// and a 14-entry block map (12 direct, 1 single-indirect, 1 double-indirect).
type inode struct {
	Flags      uint32
	Size       uint64
	ChildCount uint32
	AccessTime int64
	ModifyTime int64
	ChangeTime int64
	Blocks     [BlockMapLength]BlockID
}

func (n *inode) inUse() bool  { return n.Flags&inodeFlagInUse != 0 }
func (n *inode) isDir() bool  { return n.Flags&inodeTypeMask == inodeTypeDir }
func (n *inode) isFile() bool { return n.Flags&inodeTypeMask == inodeTypeFile }

// leUint32 reads a little-endian uint32 out of buf at byte offset off.
func leUint32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

func (n *inode) encode(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
	w := bytewriter.New(buffer)
	binary.Write(w, binary.LittleEndian, n.Flags)
	binary.Write(w, binary.LittleEndian, n.Size)
	binary.Write(w, binary.LittleEndian, n.ChildCount)
	binary.Write(w, binary.LittleEndian, n.AccessTime)
	binary.Write(w, binary.LittleEndian, n.ModifyTime)
	binary.Write(w, binary.LittleEndian, n.ChangeTime)
	for _, b := range n.Blocks {
		binary.Write(w, binary.LittleEndian, uint32(b))
	}
}

func decodeInode(buffer []byte) *inode {
	r := byteReader{buf: buffer}
	n := &inode{}
	n.Flags = r.uint32()
	n.Size = r.uint64()
	n.ChildCount = r.uint32()
	n.AccessTime = r.int64()
	n.ModifyTime = r.int64()
	n.ChangeTime = r.int64()
	for i := range n.Blocks {
		n.Blocks[i] = BlockID(r.uint32())
	}
	return n
}

// inodeStore reads and writes individual inode records out of the flat
// inode table that starts at sb.FirstInodeBlock.
type inodeStore struct {
	device *BlockDevice
	sb     *superblock
}

func (s *inodeStore) locate(id InodeID) (blockID BlockID, offset int) {
	const perBlock = BlockSize / InodeSize
	blockID = s.sb.FirstInodeBlock + BlockID(uint32(id)/perBlock)
	offset = (int(id) % perBlock) * InodeSize
	return
}

func (s *inodeStore) Read(id InodeID) (*inode, error) {
	if uint32(id) >= s.sb.NumInodes {
		return nil, ErrNotFound
	}
	blockID, offset := s.locate(id)
	buf := s.device.NewBlockBuffer()
	if err := s.device.ReadBlock(blockID, buf); err != nil {
		return nil, err
	}
	return decodeInode(buf[offset : offset+InodeSize]), nil
}

func (s *inodeStore) Write(id InodeID, n *inode) error {
	blockID, offset := s.locate(id)
	buf := s.device.NewBlockBuffer()
	if err := s.device.ReadBlock(blockID, buf); err != nil {
		return err
	}
	n.encode(buf[offset : offset+InodeSize])
	return s.device.WriteBlock(blockID, buf)
}

// AllocateInode scans the inode table for the first record without
// inodeFlagInUse set, linearly, matching original_source's
// allocateNextINode (spec.md §4.2).
func (s *inodeStore) AllocateInode() (InodeID, error) {
	if s.sb.NumFreeInodes == 0 {
		return 0, ErrNoSpace
	}
	for i := uint32(0); i < s.sb.NumInodes; i++ {
		id := InodeID(i)
		n, err := s.Read(id)
		if err != nil {
			return 0, err
		}
		if !n.inUse() {
			return id, nil
		}
	}
	return 0, ErrNoSpace
}

// blockForOffset walks the direct/single-indirect/double-indirect block map
// to find the data block holding byte offset, allocating new blocks (and
// new indirect tables) as needed when grow is true. On allocation failure it
// rolls back every block it allocated during this call before returning,
// using go-multierror to aggregate any rollback errors that occur alongside
// the original failure (spec.md §4.3, §9's "assignNextBlock" walk).
func (n *inode) blockForOffset(
	alloc *blockAllocator, device *BlockDevice, offset int64, grow bool,
) (BlockID, error) {
	index := offset / BlockSize
	var allocated []BlockID

	rollback := func(err error) (BlockID, error) {
		var result error = err
		for _, b := range allocated {
			if ferr := alloc.FreeBlock(b); ferr != nil {
				result = multierror.Append(result, ferr)
			}
		}
		return 0, result
	}

	ensure := func(slot *BlockID) error {
		if *slot != 0 {
			return nil
		}
		if !grow {
			return ErrNotFound
		}
		id, err := alloc.AllocateBlock()
		if err != nil {
			return err
		}
		zero := device.NewBlockBuffer()
		if err := device.WriteBlock(id, zero); err != nil {
			return err
		}
		*slot = id
		allocated = append(allocated, id)
		return nil
	}

	readPointers := func(block BlockID) ([]BlockID, error) {
		buf := device.NewBlockBuffer()
		if err := device.ReadBlock(block, buf); err != nil {
			return nil, err
		}
		ptrs := make([]BlockID, pointersPerBlock)
		for i := range ptrs {
			ptrs[i] = BlockID(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
		}
		return ptrs, nil
	}

	writePointers := func(block BlockID, ptrs []BlockID) error {
		buf := device.NewBlockBuffer()
		for i, p := range ptrs {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(p))
		}
		return device.WriteBlock(block, buf)
	}

	switch {
	case index < DirectBlockCount:
		if err := ensure(&n.Blocks[index]); err != nil {
			return rollback(err)
		}
		return n.Blocks[index], nil

	case index < DirectBlockCount+pointersPerBlock:
		if err := ensure(&n.Blocks[SingleIndirectIndex]); err != nil {
			return rollback(err)
		}
		ptrs, err := readPointers(n.Blocks[SingleIndirectIndex])
		if err != nil {
			return rollback(err)
		}
		slotIndex := index - DirectBlockCount
		if err := ensure(&ptrs[slotIndex]); err != nil {
			return rollback(err)
		}
		if err := writePointers(n.Blocks[SingleIndirectIndex], ptrs); err != nil {
			return rollback(err)
		}
		return ptrs[slotIndex], nil

	default:
		dindex := index - DirectBlockCount - pointersPerBlock
		if dindex >= pointersPerBlock*pointersPerBlock {
			return rollback(ErrNoSpace)
		}
		if err := ensure(&n.Blocks[DoubleIndirectIndex]); err != nil {
			return rollback(err)
		}
		outer, err := readPointers(n.Blocks[DoubleIndirectIndex])
		if err != nil {
			return rollback(err)
		}
		outerSlot := dindex / pointersPerBlock
		if err := ensure(&outer[outerSlot]); err != nil {
			return rollback(err)
		}
		if err := writePointers(n.Blocks[DoubleIndirectIndex], outer); err != nil {
			return rollback(err)
		}
		inner, err := readPointers(outer[outerSlot])
		if err != nil {
			return rollback(err)
		}
		innerSlot := dindex % pointersPerBlock
		if err := ensure(&inner[innerSlot]); err != nil {
			return rollback(err)
		}
		if err := writePointers(outer[outerSlot], inner); err != nil {
			return rollback(err)
		}
		return inner[innerSlot], nil
	}
}
