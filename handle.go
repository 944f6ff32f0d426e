package sfs

// fileHandle is one slot of the fixed open-file table (spec.md §5): it
// remembers which inode a descriptor refers to so Read/Write/Release don't
// need a path lookup on every call.
type fileHandle struct {
	inUse   bool
	inodeID InodeID
	isDir   bool
}

// handleTable is the fixed NumOpenFiles-slot table original_source calls
// FileHandle[NUM_OPEN_FILES]; allocation is a linear scan for the first free
// slot (spec.md §5, §9's single-threaded cooperative concurrency model — no
// locking is needed here since every operation runs to completion before
// the next one starts).
type handleTable struct {
	slots [NumOpenFiles]fileHandle
}

// Allocate reserves the first free slot for inodeID and returns its index,
// or ErrTooManyOpen if the table is full.
func (t *handleTable) Allocate(inodeID InodeID, isDir bool) (int, error) {
	for i := range t.slots {
		if !t.slots[i].inUse {
			t.slots[i] = fileHandle{inUse: true, inodeID: inodeID, isDir: isDir}
			return i, nil
		}
	}
	return 0, ErrTooManyOpen
}

// Get returns the handle at fd, failing if fd is out of range or not
// currently open.
func (t *handleTable) Get(fd int) (*fileHandle, error) {
	if fd < 0 || fd >= len(t.slots) || !t.slots[fd].inUse {
		return nil, ErrNotFound
	}
	return &t.slots[fd], nil
}

// Release frees fd so a later Allocate can reuse it.
func (t *handleTable) Release(fd int) error {
	if fd < 0 || fd >= len(t.slots) || !t.slots[fd].inUse {
		return ErrNotFound
	}
	t.slots[fd] = fileHandle{}
	return nil
}
