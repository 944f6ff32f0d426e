package sfs

// Fixed stat fields every inode reports (spec.md §4.6): this filesystem has
// no permission bits or ownership of its own, so getattr always reports
// rwxrwxrwx owned by uid/gid 0 with a single link.
const (
	fixedMode  = 0o777
	fixedUID   = 0
	fixedGID   = 0
	fixedNlink = 1

	statBlockSize = 512
)

// Attr is the subset of inode metadata exposed to callers by Getattr,
// mirroring the fields a kernel bridge's stat callback needs (spec.md §6).
type Attr struct {
	InodeID    InodeID
	IsDir      bool
	Size       uint64
	ChildCount uint32
	AccessTime int64
	ModifyTime int64
	ChangeTime int64
	Mode       uint32
	UID        uint32
	GID        uint32
	Nlink      uint32
	Blocks     uint64
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name    string
	InodeID InodeID
	IsDir   bool
}

func attrFromInode(id InodeID, n *inode) Attr {
	return Attr{
		InodeID:    id,
		IsDir:      n.isDir(),
		Size:       n.Size,
		ChildCount: n.ChildCount,
		AccessTime: n.AccessTime,
		ModifyTime: n.ModifyTime,
		ChangeTime: n.ChangeTime,
		Mode:       fixedMode,
		UID:        fixedUID,
		GID:        fixedGID,
		Nlink:      fixedNlink,
		Blocks:     (n.Size + statBlockSize - 1) / statBlockSize,
	}
}

// Getattr returns the metadata for path (spec.md §6's getattr operation).
func (fs *FileSystem) Getattr(path string) (Attr, error) {
	id, err := fs.res.Resolve(path)
	if err != nil {
		fs.logger.Printf("getattr %s: %v", path, err)
		return Attr{}, err
	}
	n, err := fs.inodes.Read(id)
	if err != nil {
		return Attr{}, err
	}
	return attrFromInode(id, n), nil
}

// createInode resolves path's parent and either hands back an existing
// entry's inode id (failIfExists == false, the create() case — original_source
// sfs_create falls straight through to sfs_open when findFile succeeds) or
// fails with ErrExists (failIfExists == true, the mkdir() case). For a truly
// new entry it allocates an inode and its mandatory initial data block
// (spec.md §4.6: create gets one zeroed block at capacity 0; mkdir gets one
// zeroed block with Size == BlockSize).
func (fs *FileSystem) createInode(path string, flags uint32, failIfExists bool) (InodeID, error) {
	parentID, name, err := fs.res.ResolveParent(path)
	if err != nil {
		return 0, err
	}
	parent, err := fs.inodes.Read(parentID)
	if err != nil {
		return 0, err
	}
	if entry, err := fs.dirs.FindEntry(parent, name); err == nil {
		if failIfExists {
			return 0, ErrExists
		}
		return entry.InodeID, nil
	}

	id, err := fs.inodes.AllocateInode()
	if err != nil {
		return 0, err
	}

	blockID, err := fs.blocks.AllocateBlock()
	if err != nil {
		return 0, err
	}
	zero := fs.device.NewBlockBuffer()
	if err := fs.device.WriteBlock(blockID, zero); err != nil {
		return 0, err
	}

	now := currentTime()
	n := &inode{Flags: flags, AccessTime: now, ModifyTime: now, ChangeTime: now}
	n.Blocks[0] = blockID
	if flags&inodeTypeMask == inodeTypeDir {
		n.Size = BlockSize
	}
	if err := fs.inodes.Write(id, n); err != nil {
		return 0, err
	}

	if err := fs.dirs.AddEntry(parent, name, id); err != nil {
		return 0, err
	}
	if err := fs.inodes.Write(parentID, parent); err != nil {
		return 0, err
	}

	fs.sb.NumFreeInodes--
	if err := fs.writeSuperblock(); err != nil {
		return 0, err
	}
	return id, nil
}

// Create opens path, creating a new regular file there if it doesn't
// already exist, and returns an open handle to it (spec.md §6's create
// operation, which opens rather than fails on an existing path).
func (fs *FileSystem) Create(path string) (int, error) {
	id, err := fs.createInode(path, inodeFlagInUse|inodeTypeFile, false)
	if err != nil {
		fs.logger.Printf("create %s: %v", path, err)
		return 0, err
	}
	n, err := fs.inodes.Read(id)
	if err != nil {
		return 0, err
	}
	if n.isDir() {
		return 0, ErrIsDirectory
	}
	return fs.handles.Allocate(id, false)
}

// Mkdir creates a new, empty directory at path (spec.md §6's mkdir
// operation).
func (fs *FileSystem) Mkdir(path string) error {
	_, err := fs.createInode(path, inodeFlagInUse|inodeTypeDir, true)
	if err != nil {
		fs.logger.Printf("mkdir %s: %v", path, err)
	}
	return err
}

// Open resolves path and returns a handle usable with Read/Write/Release
// (spec.md §6's open operation). It fails with ErrIsDirectory if path names
// a directory; use Opendir for those.
func (fs *FileSystem) Open(path string) (int, error) {
	id, err := fs.res.Resolve(path)
	if err != nil {
		fs.logger.Printf("open %s: %v", path, err)
		return 0, err
	}
	n, err := fs.inodes.Read(id)
	if err != nil {
		return 0, err
	}
	if n.isDir() {
		return 0, ErrIsDirectory
	}
	return fs.handles.Allocate(id, false)
}

// Release closes a handle previously returned by Create or Open (spec.md
// §6's release operation).
func (fs *FileSystem) Release(fd int) error {
	return fs.handles.Release(fd)
}

// Read fills buf starting at offset in the file behind fd, returning the
// number of bytes actually read. Reading past end of file returns fewer
// bytes than len(buf) (possibly zero) rather than an error (spec.md §6's
// read operation, §4.6 "short read past EOF").
func (fs *FileSystem) Read(fd int, buf []byte, offset int64) (int, error) {
	h, err := fs.handles.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err := fs.inodes.Read(h.inodeID)
	if err != nil {
		return 0, err
	}
	if offset >= int64(n.Size) {
		return 0, nil
	}

	remaining := int64(n.Size) - offset
	if remaining < int64(len(buf)) {
		buf = buf[:remaining]
	}

	total := 0
	for total < len(buf) {
		curOffset := offset + int64(total)
		within := int(curOffset % BlockSize)
		span := BlockSize - within
		if span > len(buf)-total {
			span = len(buf) - total
		}

		blockID, err := n.blockForOffset(fs.blocks, fs.device, curOffset, false)
		if err != nil {
			if err == ErrNotFound {
				// Hole: spec.md §4.6 says holes read back as zero bytes for
				// their span, not end-of-file, so keep going past them.
				for i := 0; i < span; i++ {
					buf[total+i] = 0
				}
				total += span
				continue
			}
			return total, err
		}
		blockBuf := fs.device.NewBlockBuffer()
		if err := fs.device.ReadBlock(blockID, blockBuf); err != nil {
			return total, err
		}
		chunk := copy(buf[total:total+span], blockBuf[within:])
		total += chunk
	}

	n.AccessTime = currentTime()
	if err := fs.inodes.Write(h.inodeID, n); err != nil {
		return total, err
	}
	return total, nil
}

// Write writes buf at offset in the file behind fd, growing the file and
// allocating blocks as needed. The file's size becomes
// max(old size, offset+len(buf)) rather than being incremented, so writes
// that land entirely within the existing size don't inflate it (spec.md
// §9's write-size Open Question, resolved toward POSIX pwrite semantics).
func (fs *FileSystem) Write(fd int, buf []byte, offset int64) (int, error) {
	h, err := fs.handles.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err := fs.inodes.Read(h.inodeID)
	if err != nil {
		return 0, err
	}

	total := 0
	for total < len(buf) {
		curOffset := offset + int64(total)
		if curOffset >= MaxFileSize {
			break
		}
		blockID, err := n.blockForOffset(fs.blocks, fs.device, curOffset, true)
		if err != nil {
			if err := fs.inodes.Write(h.inodeID, n); err != nil {
				return total, err
			}
			if err := fs.writeSuperblock(); err != nil {
				return total, err
			}
			return total, err
		}
		blockBuf := fs.device.NewBlockBuffer()
		if err := fs.device.ReadBlock(blockID, blockBuf); err != nil {
			return total, err
		}
		within := int(curOffset % BlockSize)
		chunk := copy(blockBuf[within:], buf[total:])
		if err := fs.device.WriteBlock(blockID, blockBuf); err != nil {
			return total, err
		}
		total += chunk
	}

	newSize := uint64(offset + int64(total))
	if newSize > n.Size {
		n.Size = newSize
	}
	n.ModifyTime = currentTime()
	n.ChangeTime = n.ModifyTime
	if err := fs.inodes.Write(h.inodeID, n); err != nil {
		return total, err
	}
	if err := fs.writeSuperblock(); err != nil {
		return total, err
	}
	return total, nil
}

// freeAllBlocks releases every data and indirect block reachable from n,
// matching original_source's block-release loop in sfs_unlink (spec.md §9:
// the release loop walks non-zero direct[0..11] entries, not size/block_size).
func (fs *FileSystem) freeAllBlocks(n *inode) error {
	for i := 0; i < DirectBlockCount; i++ {
		if n.Blocks[i] != 0 {
			if err := fs.blocks.FreeBlock(n.Blocks[i]); err != nil {
				return err
			}
		}
	}

	freeIndirect := func(block BlockID, depth int) error {
		if block == 0 {
			return nil
		}
		buf := fs.device.NewBlockBuffer()
		if err := fs.device.ReadBlock(block, buf); err != nil {
			return err
		}
		for i := 0; i < pointersPerBlock; i++ {
			ptr := BlockID(leUint32(buf, i*4))
			if ptr == 0 {
				continue
			}
			if depth == 2 {
				inner := fs.device.NewBlockBuffer()
				if err := fs.device.ReadBlock(ptr, inner); err != nil {
					return err
				}
				for j := 0; j < pointersPerBlock; j++ {
					innerPtr := BlockID(leUint32(inner, j*4))
					if innerPtr != 0 {
						if err := fs.blocks.FreeBlock(innerPtr); err != nil {
							return err
						}
					}
				}
			}
			if err := fs.blocks.FreeBlock(ptr); err != nil {
				return err
			}
		}
		return fs.blocks.FreeBlock(block)
	}

	if err := freeIndirect(n.Blocks[SingleIndirectIndex], 1); err != nil {
		return err
	}
	if err := freeIndirect(n.Blocks[DoubleIndirectIndex], 2); err != nil {
		return err
	}
	return nil
}

// Unlink removes the file at path, freeing its inode and data blocks.
// Unlink on a directory fails with ErrIsDirectory rather than silently
// behaving like Rmdir (spec.md §9's unlink-on-directory Open Question).
func (fs *FileSystem) Unlink(path string) error {
	parentID, name, err := fs.res.ResolveParent(path)
	if err != nil {
		return err
	}
	parent, err := fs.inodes.Read(parentID)
	if err != nil {
		return err
	}
	entry, err := fs.dirs.FindEntry(parent, name)
	if err != nil {
		fs.logger.Printf("unlink %s: %v", path, err)
		return err
	}

	n, err := fs.inodes.Read(entry.InodeID)
	if err != nil {
		return err
	}
	if n.isDir() {
		return ErrIsDirectory
	}

	if err := fs.freeAllBlocks(n); err != nil {
		return err
	}
	if err := fs.dirs.RemoveEntry(parent, name); err != nil {
		return err
	}
	if err := fs.inodes.Write(parentID, parent); err != nil {
		return err
	}

	*n = inode{}
	if err := fs.inodes.Write(entry.InodeID, n); err != nil {
		return err
	}
	fs.sb.NumFreeInodes++
	return fs.writeSuperblock()
}

// Rmdir removes the empty directory at path (spec.md §6's rmdir operation).
func (fs *FileSystem) Rmdir(path string) error {
	parentID, name, err := fs.res.ResolveParent(path)
	if err != nil {
		return err
	}
	parent, err := fs.inodes.Read(parentID)
	if err != nil {
		return err
	}
	entry, err := fs.dirs.FindEntry(parent, name)
	if err != nil {
		fs.logger.Printf("rmdir %s: %v", path, err)
		return err
	}

	n, err := fs.inodes.Read(entry.InodeID)
	if err != nil {
		return err
	}
	if !n.isDir() {
		return ErrNotDirectory
	}
	if n.ChildCount > 0 {
		return ErrNotEmpty
	}

	if err := fs.freeAllBlocks(n); err != nil {
		return err
	}
	if err := fs.dirs.RemoveEntry(parent, name); err != nil {
		return err
	}
	if err := fs.inodes.Write(parentID, parent); err != nil {
		return err
	}

	*n = inode{}
	if err := fs.inodes.Write(entry.InodeID, n); err != nil {
		return err
	}
	fs.sb.NumFreeInodes++
	return fs.writeSuperblock()
}

// Opendir resolves path and returns a handle usable with Readdir/Releasedir
// (spec.md §6's opendir operation).
func (fs *FileSystem) Opendir(path string) (int, error) {
	id, err := fs.res.Resolve(path)
	if err != nil {
		fs.logger.Printf("opendir %s: %v", path, err)
		return 0, err
	}
	n, err := fs.inodes.Read(id)
	if err != nil {
		return 0, err
	}
	if !n.isDir() {
		return 0, ErrNotDirectory
	}
	return fs.handles.Allocate(id, true)
}

// Readdir lists every entry in the directory behind fd (spec.md §6's
// readdir operation).
func (fs *FileSystem) Readdir(fd int) ([]DirEntry, error) {
	h, err := fs.handles.Get(fd)
	if err != nil {
		return nil, err
	}
	if !h.isDir {
		return nil, ErrNotDirectory
	}
	dir, err := fs.inodes.Read(h.inodeID)
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	err = fs.dirs.forEachEntry(dir, func(_, _ int, e *fileEntry) bool {
		childInode, rerr := fs.inodes.Read(e.InodeID)
		isDir := rerr == nil && childInode.isDir()
		entries = append(entries, DirEntry{Name: e.Name, InodeID: e.InodeID, IsDir: isDir})
		return false
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Releasedir closes a handle previously returned by Opendir (spec.md §6's
// releasedir operation).
func (fs *FileSystem) Releasedir(fd int) error {
	return fs.handles.Release(fd)
}
