package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/vkhandle"
)

func TestTableCreateRejectsDuplicate(t *testing.T) {
	tbl := newTable[DeviceWrapper]()
	h := vkhandle.Handle(1)

	w, err := tbl.Create(h)
	require.NoError(t, err)
	require.NotNil(t, w)

	_, err = tbl.Create(h)
	assert.Error(t, err)
}

func TestTableGetOrCreateIdempotent(t *testing.T) {
	tbl := newTable[QueueWrapper]()
	h := vkhandle.Handle(7)

	a := tbl.GetOrCreate(h)
	a.FamilyIndex = 3
	b := tbl.GetOrCreate(h)
	assert.Same(t, a, b)
	assert.Equal(t, uint32(3), b.FamilyIndex)
}

func TestTableEraseIfPurgesChildren(t *testing.T) {
	devices := newTable[DeviceWrapper]()
	instanceA := vkhandle.Handle(1)
	instanceB := vkhandle.Handle(2)

	d1, _ := devices.Create(vkhandle.Handle(10))
	d1.PhysicalDevice = instanceA
	d2, _ := devices.Create(vkhandle.Handle(11))
	d2.PhysicalDevice = instanceA
	d3, _ := devices.Create(vkhandle.Handle(12))
	d3.PhysicalDevice = instanceB

	devices.EraseIf(func(w *DeviceWrapper) bool { return w.PhysicalDevice == instanceA })

	assert.Equal(t, 1, devices.Len())
	_, ok := devices.Get(vkhandle.Handle(12))
	assert.True(t, ok)
}

func TestTableGetUnusedAvoidsCollisions(t *testing.T) {
	tbl := newTable[BufferWrapper]()
	used := tbl.GetUnused()
	tbl.Create(used)

	for i := 0; i < 100; i++ {
		h := tbl.GetUnused()
		assert.NotEqual(t, used, h)
	}
}

func TestBlockNewInitializesEveryTable(t *testing.T) {
	b := New()
	require.NotNil(t, b.Instances)
	require.NotNil(t, b.Swapchains)
	_, err := b.Instances.Create(vkhandle.Handle(1))
	assert.NoError(t, err)
}
