package sfs

import "strings"

// splitPath validates and splits an absolute path into its components
// (spec.md §4.5): must start with "/", a trailing slash is stripped, an
// empty component (as in "/a//b") is rejected with ErrInvalidPath, and
// every component must fit in MaxNameLength bytes.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, ErrInvalidPath
	}
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return []string{}, nil
	}
	parts := strings.Split(trimmed[1:], "/")
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidPath
		}
		if len(p) > MaxNameLength {
			return nil, ErrNameTooLong
		}
	}
	return parts, nil
}

// resolver walks a path's components through the directory store, starting
// at the root inode, mirroring original_source's findFile/findParent
// recursive descent (spec.md §4.5).
type resolver struct {
	inodes *inodeStore
	dirs   *dirStore
}

// Resolve returns the inode id naming path, or ErrNotFound /
// ErrNotDirectory if an intermediate component isn't a directory.
func (r *resolver) Resolve(path string) (InodeID, error) {
	parts, err := splitPath(path)
	if err != nil {
		return 0, err
	}

	current := RootInodeID
	for _, name := range parts {
		dir, err := r.inodes.Read(current)
		if err != nil {
			return 0, err
		}
		if !dir.isDir() {
			return 0, ErrNotDirectory
		}
		entry, err := r.dirs.FindEntry(dir, name)
		if err != nil {
			return 0, err
		}
		current = entry.InodeID
	}
	return current, nil
}

// ResolveParent splits path into (parent directory inode, final component
// name), failing with ErrNotFound if the parent doesn't exist and
// ErrNotDirectory if it isn't a directory. The final component itself need
// not exist yet, so callers can use this for create/mkdir.
func (r *resolver) ResolveParent(path string) (InodeID, string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return 0, "", err
	}
	if len(parts) == 0 {
		return 0, "", ErrInvalidPath
	}

	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	parentID, err := r.Resolve(parentPath)
	if err != nil {
		return 0, "", err
	}
	parent, err := r.inodes.Read(parentID)
	if err != nil {
		return 0, "", err
	}
	if !parent.isDir() {
		return 0, "", ErrNotDirectory
	}
	return parentID, parts[len(parts)-1], nil
}
