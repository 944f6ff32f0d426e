package sfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/sfs"
	"github.com/dargueta/sfs/sfstest"
)

func newTestFileSystem(t *testing.T) *sfs.FileSystem {
	t.Helper()
	_, fileSystem := sfstest.NewFormattedImage(t)
	return fileSystem
}

func TestFormat_RootDirectoryExists(t *testing.T) {
	fileSystem := newTestFileSystem(t)

	attr, err := fileSystem.Getattr("/")
	require.NoError(t, err)
	assert.True(t, attr.IsDir)
	assert.Equal(t, uint32(0), attr.ChildCount)
}

func TestMkdirAndCreate_NestedReaddir(t *testing.T) {
	fileSystem := newTestFileSystem(t)

	require.NoError(t, fileSystem.Mkdir("/etc"))
	fd, err := fileSystem.Create("/etc/hosts")
	require.NoError(t, err)
	require.NoError(t, fileSystem.Release(fd))

	dirFd, err := fileSystem.Opendir("/etc")
	require.NoError(t, err)
	defer fileSystem.Releasedir(dirFd)

	entries, err := fileSystem.Readdir(dirFd)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hosts", entries[0].Name)
	assert.False(t, entries[0].IsDir)

	rootFd, err := fileSystem.Opendir("/")
	require.NoError(t, err)
	defer fileSystem.Releasedir(rootFd)
	rootEntries, err := fileSystem.Readdir(rootFd)
	require.NoError(t, err)
	require.Len(t, rootEntries, 1)
	assert.Equal(t, "etc", rootEntries[0].Name)
	assert.True(t, rootEntries[0].IsDir)
}

func TestWriteRead_CrossesIntoIndirectBlocks(t *testing.T) {
	fileSystem := newTestFileSystem(t)

	fd, err := fileSystem.Create("/big")
	require.NoError(t, err)

	// 12 direct blocks only cover sfs.BlockSize*12 bytes; write well past
	// that boundary so the single-indirect table gets exercised.
	size := sfs.BlockSize*13 + 100
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}

	written, err := fileSystem.Write(fd, content, 0)
	require.NoError(t, err)
	assert.Equal(t, size, written)
	require.NoError(t, fileSystem.Release(fd))

	readFd, err := fileSystem.Open("/big")
	require.NoError(t, err)
	defer fileSystem.Release(readFd)

	readBack := make([]byte, size)
	n, err := fileSystem.Read(readFd, readBack, 0)
	require.NoError(t, err)
	assert.Equal(t, size, n)
	assert.Equal(t, content, readBack)
}

func TestRead_PastEndOfFileReturnsShortRead(t *testing.T) {
	fileSystem := newTestFileSystem(t)

	fd, err := fileSystem.Create("/short")
	require.NoError(t, err)
	_, err = fileSystem.Write(fd, []byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, fileSystem.Release(fd))

	readFd, err := fileSystem.Open("/short")
	require.NoError(t, err)
	defer fileSystem.Release(readFd)

	buf := make([]byte, 100)
	n, err := fileSystem.Read(readFd, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "llo", string(buf[:n]))

	n, err = fileSystem.Read(readFd, buf, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnlink_RemovesPathAndEntry(t *testing.T) {
	fileSystem := newTestFileSystem(t)

	fd, err := fileSystem.Create("/tmp.txt")
	require.NoError(t, err)
	_, err = fileSystem.Write(fd, []byte("data"), 0)
	require.NoError(t, err)
	require.NoError(t, fileSystem.Release(fd))

	require.NoError(t, fileSystem.Unlink("/tmp.txt"))

	_, err = fileSystem.Getattr("/tmp.txt")
	assert.ErrorIs(t, err, sfs.ErrNotFound)

	rootFd, err := fileSystem.Opendir("/")
	require.NoError(t, err)
	defer fileSystem.Releasedir(rootFd)
	entries, err := fileSystem.Readdir(rootFd)
	require.NoError(t, err)
	assert.Len(t, entries, 0)
}

func TestUnlink_OnDirectoryFails(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	require.NoError(t, fileSystem.Mkdir("/dir"))

	err := fileSystem.Unlink("/dir")
	assert.ErrorIs(t, err, sfs.ErrIsDirectory)
}

func TestRmdir_FailsWhenNotEmptyThenSucceeds(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	require.NoError(t, fileSystem.Mkdir("/dir"))
	fd, err := fileSystem.Create("/dir/file")
	require.NoError(t, err)
	require.NoError(t, fileSystem.Release(fd))

	err = fileSystem.Rmdir("/dir")
	assert.ErrorIs(t, err, sfs.ErrNotEmpty)

	require.NoError(t, fileSystem.Unlink("/dir/file"))
	require.NoError(t, fileSystem.Rmdir("/dir"))

	_, err = fileSystem.Getattr("/dir")
	assert.ErrorIs(t, err, sfs.ErrNotFound)
}

func TestCreate_ExistingPathOpensInsteadOfFailing(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	fd, err := fileSystem.Create("/dup")
	require.NoError(t, err)
	_, err = fileSystem.Write(fd, []byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, fileSystem.Release(fd))

	fd2, err := fileSystem.Create("/dup")
	require.NoError(t, err)
	defer fileSystem.Release(fd2)

	buf := make([]byte, 5)
	n, err := fileSystem.Read(fd2, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestCreate_OnExistingDirectoryFails(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	require.NoError(t, fileSystem.Mkdir("/dir"))

	_, err := fileSystem.Create("/dir")
	assert.ErrorIs(t, err, sfs.ErrIsDirectory)
}

func TestMkdir_DuplicateNameFails(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	require.NoError(t, fileSystem.Mkdir("/dup"))

	err := fileSystem.Mkdir("/dup")
	assert.ErrorIs(t, err, sfs.ErrExists)
}

func TestResolve_RelativePathRejected(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	_, err := fileSystem.Getattr("relative/path")
	assert.ErrorIs(t, err, sfs.ErrInvalidPath)
}

func TestResolve_NameTooLongRejected(t *testing.T) {
	fileSystem := newTestFileSystem(t)
	longName := make([]byte, sfs.MaxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	_, err := fileSystem.Getattr("/" + string(longName))
	assert.ErrorIs(t, err, sfs.ErrNameTooLong)
}
