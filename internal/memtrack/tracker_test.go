package memtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/vkhandle"
)

func TestNewRejectsSecondInstall(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	defer tr.Close()

	_, err = New()
	assert.Error(t, err)
}

func TestAddRemoveTrackedRangeRoundTrips(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	defer tr.Close()

	src := make([]byte, pageSize)
	for i := range src {
		src[i] = byte(i)
	}
	srcAddr := shadowAddr(src)

	shadow, err := tr.AddTrackedRange(vkhandle.Handle(1), srcAddr, uint64(len(src)))
	require.NoError(t, err)
	assert.NotZero(t, shadow)
	assert.Equal(t, uint64(1), tr.TotalPages())

	require.NoError(t, tr.RemoveTrackedRange(vkhandle.Handle(1)))
	assert.Equal(t, uint64(1), tr.TotalPages(), "TotalPages counts every page ever allocated, not a live count")
}

func TestHandleFaultMarksPageDirtyOnWrite(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	defer tr.Close()

	src := make([]byte, pageSize)
	srcAddr := shadowAddr(src)
	shadow, err := tr.AddTrackedRange(vkhandle.Handle(2), srcAddr, uint64(len(src)))
	require.NoError(t, err)

	handled := tr.HandleFault(shadow, false)
	assert.True(t, handled)

	drained := 0
	tr.ForDirtyInMem(vkhandle.Handle(2), func(offset uint64, data []byte) {
		drained++
		assert.Equal(t, uint64(0), offset)
	})
	assert.Equal(t, 1, drained)

	require.NoError(t, tr.RemoveTrackedRange(vkhandle.Handle(2)))
}

func TestHandleFaultIgnoresUntrackedAddress(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	defer tr.Close()

	assert.False(t, tr.HandleFault(0xdeadbeef, true))
}
