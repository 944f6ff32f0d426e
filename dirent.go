package sfs

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// fileEntry is the decoded form of one 128-byte directory record (spec.md
// §3): a 124-byte NUL-padded name and the inode id it names.
type fileEntry struct {
	Name    string
	InodeID InodeID
}

func (e *fileEntry) encode(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
	w := bytewriter.New(buffer)
	w.Write([]byte(e.Name))
	binary.Write(bytewriter.New(buffer[MaxNameLength+1:]), binary.LittleEndian, uint32(e.InodeID))
}

func decodeFileEntry(buffer []byte) *fileEntry {
	nameBytes := buffer[:MaxNameLength+1]
	if i := bytes.IndexByte(nameBytes, 0); i >= 0 {
		nameBytes = nameBytes[:i]
	}
	return &fileEntry{
		Name:    string(nameBytes),
		InodeID: InodeID(binary.LittleEndian.Uint32(buffer[MaxNameLength+1:])),
	}
}

// dirStore manipulates the packed fileEntry array held in a directory
// inode's direct blocks. Directories are explicitly capped to direct blocks
// only (spec.md §4.4, §9): no single- or double-indirect growth.
type dirStore struct {
	device *BlockDevice
	alloc  *blockAllocator
	inodes *inodeStore
}

// forEachEntry walks every live entry (first ChildCount slots... actually
// entries are packed densely by addEntry/removeEntry, so it walks exactly
// ChildCount slots across the directory's allocated direct blocks) invoking
// fn with its block-local slot so callers can overwrite or remove it.
func (d *dirStore) forEachEntry(dir *inode, fn func(blockIdx, slot int, e *fileEntry) (stop bool)) error {
	remaining := int(dir.ChildCount)
	for b := 0; b < DirectBlockCount && remaining > 0; b++ {
		blockID := dir.Blocks[b]
		if blockID == 0 {
			continue
		}
		buf := d.device.NewBlockBuffer()
		if err := d.device.ReadBlock(blockID, buf); err != nil {
			return err
		}
		for slot := 0; slot < entriesPerBlock && remaining > 0; slot++ {
			rec := buf[slot*DirEntrySize : (slot+1)*DirEntrySize]
			e := decodeFileEntry(rec)
			if e.Name == "" {
				continue
			}
			remaining--
			if fn(b, slot, e) {
				return nil
			}
		}
	}
	return nil
}

// FindEntry returns the entry named name in dir, or ErrNotFound.
func (d *dirStore) FindEntry(dir *inode, name string) (*fileEntry, error) {
	var found *fileEntry
	err := d.forEachEntry(dir, func(_, _ int, e *fileEntry) bool {
		if e.Name == name {
			cp := *e
			found = &cp
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// AddEntry appends a new (name, inodeID) record to dir, allocating a fresh
// direct block when the current ones are full, up to maxDirectoryEntries
// (spec.md §4.4). The entry is written to its block before AddEntry
// increments dir.ChildCount, per spec.md §9's ordering invariant
// ("directory entry write precedes child_count increment"); persisting dir
// itself is left to the caller.
func (d *dirStore) AddEntry(dir *inode, name string, id InodeID) error {
	if int(dir.ChildCount) >= maxDirectoryEntries {
		return ErrNoSpace
	}

	for b := 0; b < DirectBlockCount; b++ {
		if dir.Blocks[b] == 0 {
			newBlock, err := d.alloc.AllocateBlock()
			if err != nil {
				return err
			}
			zero := d.device.NewBlockBuffer()
			if err := d.device.WriteBlock(newBlock, zero); err != nil {
				return err
			}
			dir.Blocks[b] = newBlock
			dir.Size += BlockSize
		}

		buf := d.device.NewBlockBuffer()
		if err := d.device.ReadBlock(dir.Blocks[b], buf); err != nil {
			return err
		}
		for slot := 0; slot < entriesPerBlock; slot++ {
			rec := buf[slot*DirEntrySize : (slot+1)*DirEntrySize]
			if rec[0] == 0 {
				entry := &fileEntry{Name: name, InodeID: id}
				entry.encode(rec)
				if err := d.device.WriteBlock(dir.Blocks[b], buf); err != nil {
					return err
				}
				dir.ChildCount++
				return nil
			}
		}
	}
	return ErrNoSpace
}

// RemoveEntry deletes the entry named name from dir using swap-and-shrink:
// the last live entry in the directory is moved into the freed slot so
// entries stay packed (spec.md §4.4, mirrors original_source
// removeFileEntry).
func (d *dirStore) RemoveEntry(dir *inode, name string) error {
	type loc struct {
		block, slot int
		entry       *fileEntry
	}
	var target, last *loc

	err := d.forEachEntry(dir, func(b, slot int, e *fileEntry) bool {
		cp := *e
		l := &loc{block: b, slot: slot, entry: &cp}
		if e.Name == name {
			target = l
		}
		last = l
		return false
	})
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	if target != last {
		buf := d.device.NewBlockBuffer()
		if err := d.device.ReadBlock(dir.Blocks[last.block], buf); err != nil {
			return err
		}
		rec := buf[last.slot*DirEntrySize : (last.slot+1)*DirEntrySize]
		moved := decodeFileEntry(rec)

		targetBuf := buf
		if target.block != last.block {
			targetBuf = d.device.NewBlockBuffer()
			if err := d.device.ReadBlock(dir.Blocks[target.block], targetBuf); err != nil {
				return err
			}
		}
		targetRec := targetBuf[target.slot*DirEntrySize : (target.slot+1)*DirEntrySize]
		moved.encode(targetRec)
		if err := d.device.WriteBlock(dir.Blocks[target.block], targetBuf); err != nil {
			return err
		}
	}

	clearBuf := d.device.NewBlockBuffer()
	if err := d.device.ReadBlock(dir.Blocks[last.block], clearBuf); err != nil {
		return err
	}
	rec := clearBuf[last.slot*DirEntrySize : (last.slot+1)*DirEntrySize]
	for i := range rec {
		rec[i] = 0
	}
	if err := d.device.WriteBlock(dir.Blocks[last.block], clearBuf); err != nil {
		return err
	}

	dir.ChildCount--
	return nil
}
