package sfs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// newTestDevice formats a blank in-memory image's metadata region (inode
// table + bitmap, but not the root inode) and returns the raw device and
// superblock, for tests that exercise allocators/stores below the
// FileSystem level directly. Lives here instead of sfstest since those
// packages would otherwise import each other.
func newTestDevice(t *testing.T) (*BlockDevice, *superblock) {
	t.Helper()
	buf := make([]byte, TotalSize)
	stream := bytesextra.NewReadWriteSeeker(buf)
	device := NewBlockDevice(stream, BlockSize, TotalBlocks)

	sb := formatSuperblock()
	zero := device.NewBlockBuffer()
	for i := sb.FirstInodeBlock; i < sb.FirstDataBlock; i++ {
		require.NoError(t, device.WriteBlock(i, zero))
	}
	return device, sb
}
