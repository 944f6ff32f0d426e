package sfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T) *blockAllocator {
	t.Helper()
	device, sb := newTestDevice(t)

	alloc, err := loadBlockAllocator(device, sb)
	require.NoError(t, err)
	return alloc
}

func TestBlockAllocator_AllocateIsFirstFit(t *testing.T) {
	alloc := newTestAllocator(t)

	first, err := alloc.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, alloc.sb.FirstDataBlock, first)

	second, err := alloc.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestBlockAllocator_FreeThenReallocate(t *testing.T) {
	alloc := newTestAllocator(t)

	first, err := alloc.AllocateBlock()
	require.NoError(t, err)
	second, err := alloc.AllocateBlock()
	require.NoError(t, err)

	require.NoError(t, alloc.FreeBlock(first))

	reused, err := alloc.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, first, reused)
	assert.NotEqual(t, second, reused)
}

func TestBlockAllocator_CounterTracksAllocations(t *testing.T) {
	alloc := newTestAllocator(t)
	startFree := alloc.sb.NumFreeBlocks

	id, err := alloc.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, startFree-1, alloc.sb.NumFreeBlocks)

	require.NoError(t, alloc.FreeBlock(id))
	assert.Equal(t, startFree, alloc.sb.NumFreeBlocks)
}

func TestBlockAllocator_FreeingReservedBlockPanics(t *testing.T) {
	alloc := newTestAllocator(t)
	assert.Panics(t, func() {
		_ = alloc.FreeBlock(0)
	})
}
