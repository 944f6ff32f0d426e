package sfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirStore(t *testing.T) (*dirStore, *inode) {
	t.Helper()
	device, sb := newTestDevice(t)

	alloc, err := loadBlockAllocator(device, sb)
	require.NoError(t, err)
	inodes := &inodeStore{device: device, sb: sb}
	dirs := &dirStore{device: device, alloc: alloc, inodes: inodes}

	dir := &inode{Flags: inodeFlagInUse | inodeTypeDir}
	return dirs, dir
}

func TestDirStore_AddFindRemove(t *testing.T) {
	dirs, dir := newTestDirStore(t)

	require.NoError(t, dirs.AddEntry(dir, "alpha", 5))
	require.NoError(t, dirs.AddEntry(dir, "beta", 6))
	assert.Equal(t, uint32(2), dir.ChildCount)

	entry, err := dirs.FindEntry(dir, "alpha")
	require.NoError(t, err)
	assert.Equal(t, InodeID(5), entry.InodeID)

	require.NoError(t, dirs.RemoveEntry(dir, "alpha"))
	assert.Equal(t, uint32(1), dir.ChildCount)

	_, err = dirs.FindEntry(dir, "alpha")
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := dirs.FindEntry(dir, "beta")
	require.NoError(t, err)
	assert.Equal(t, InodeID(6), remaining.InodeID)
}

func TestDirStore_CapacityLimit(t *testing.T) {
	dirs, dir := newTestDirStore(t)

	for i := 0; i < maxDirectoryEntries; i++ {
		name := string(rune('a'+(i%26))) + string(rune('A'+((i/26)%26)))
		require.NoError(t, dirs.AddEntry(dir, name, InodeID(i+1)))
	}

	err := dirs.AddEntry(dir, "overflow", 9999)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestDirStore_RemoveNonexistentFails(t *testing.T) {
	dirs, dir := newTestDirStore(t)
	err := dirs.RemoveEntry(dir, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
