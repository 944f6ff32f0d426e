package sfs

import (
	"fmt"
	"syscall"
)

// DriverError wraps a POSIX errno code with an optional human-readable
// message, mirroring how a kernel bridge reports failures back to the
// caller (spec.md §7).
type DriverError struct {
	Errno   syscall.Errno
	message string
}

func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.Errno.Error()
}

// WithPath returns a copy of the error annotated with the path that
// triggered it.
func (e *DriverError) WithPath(path string) *DriverError {
	return &DriverError{
		Errno:   e.Errno,
		message: fmt.Sprintf("%s: %s", e.Error(), path),
	}
}

func newDriverError(errno syscall.Errno, message string) *DriverError {
	return &DriverError{Errno: errno, message: message}
}

// Sentinel errors, one per spec.md §7 error kind. Failures this package
// detects itself are reported as one of these (optionally wrapped with
// WithPath) rather than a bare syscall.Errno, so callers can compare with
// errors.Is. I/O errors from the backing stream are returned unchanged.
var (
	ErrNotFound     = newDriverError(syscall.ENOENT, "no such file or directory")
	ErrNameTooLong  = newDriverError(syscall.ENAMETOOLONG, "name too long")
	ErrNotDirectory = newDriverError(syscall.ENOTDIR, "not a directory")
	ErrIsDirectory  = newDriverError(syscall.EISDIR, "is a directory")
	ErrExists       = newDriverError(syscall.EEXIST, "file exists")
	ErrNotEmpty     = newDriverError(syscall.ENOTEMPTY, "directory not empty")
	ErrNoSpace      = newDriverError(syscall.ENOSPC, "no space left on device")
	ErrTooManyOpen  = newDriverError(syscall.ENFILE, "too many open files")
	ErrInvalidPath  = newDriverError(syscall.EIO, "path must be absolute")
	ErrOutOfMemory  = newDriverError(syscall.ENOMEM, "readdir buffer full")
	ErrCorrupted    = newDriverError(syscall.EUCLEAN, "filesystem structure needs cleaning")
)

// Is reports whether err is a DriverError carrying the same errno as
// target, so callers can write `errors.Is(err, sfs.ErrNotFound)`.
func (e *DriverError) Is(target error) bool {
	other, ok := target.(*DriverError)
	if !ok {
		return false
	}
	return e.Errno == other.Errno
}
