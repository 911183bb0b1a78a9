package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idmgr/internal/ir"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(4, 2, 2, ir.UniformDeviceTypes(4, ir.DeviceTypeGPU))
	require.NoError(t, err)
	return l
}

func TestLayoutShape(t *testing.T) {
	l := newTestLayout(t)

	assert.Equal(t, 9, l.SlotCount())
	assert.Equal(t, ir.ThreadID(8), l.CommNetThreadID())
	assert.Equal(t, "compute[0,4) persistence[4,6) boxing[6,8) comm_net=8", l.String())

	want := []Category{
		CategoryCompute, CategoryCompute, CategoryCompute, CategoryCompute,
		CategoryPersistence, CategoryPersistence,
		CategoryBoxing, CategoryBoxing,
		CategoryCommNet,
	}
	for i, c := range want {
		assert.Equal(t, c, l.Category(ir.ThreadID(i)), "slot %d", i)
	}
	assert.Equal(t, CategoryInvalid, l.Category(9))
	assert.Equal(t, CategoryInvalid, l.Category(-1))
}

func TestLayoutDeviceTypes(t *testing.T) {
	l, err := NewLayout(2, 1, 1, []ir.DeviceType{ir.DeviceTypeGPU, ir.DeviceTypeCPU})
	require.NoError(t, err)

	tests := []struct {
		thread ir.ThreadID
		want   ir.DeviceType
	}{
		{0, ir.DeviceTypeGPU},
		{1, ir.DeviceTypeCPU},
		{2, ir.DeviceTypeCPU}, // persistence
		{3, ir.DeviceTypeCPU}, // boxing
		{4, ir.DeviceTypeCPU}, // comm-net
	}
	for _, tt := range tests {
		got, err := l.DeviceTypeFromThreadID(tt.thread)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "thread %d", tt.thread)
	}

	_, err = l.DeviceTypeFromThreadID(5)
	assert.True(t, ir.IsNotFound(err))
}

func TestLayoutCPUOnlyCluster(t *testing.T) {
	l, err := NewLayout(0, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.ThreadID(2), l.CommNetThreadID())

	d, err := l.DeviceTypeFromThreadID(0)
	require.NoError(t, err)
	assert.Equal(t, ir.DeviceTypeCPU, d)
}

func TestNewLayoutConfigErrors(t *testing.T) {
	gpus := func(n int) []ir.DeviceType { return ir.UniformDeviceTypes(n, ir.DeviceTypeGPU) }

	tests := []struct {
		name        string
		devices     int
		persistence int
		boxing      int
		types       []ir.DeviceType
		field       string
	}{
		{"zero persistence pool", 4, 0, 2, gpus(4), "persistence_pool_size"},
		{"zero boxing pool", 4, 2, 0, gpus(4), "boxing_pool_size"},
		{"negative devices", -1, 2, 2, nil, "device_count"},
		{"short type table", 4, 2, 2, gpus(3), "device_types"},
		{"invalid device type", 1, 2, 2, []ir.DeviceType{ir.DeviceTypeInvalid}, "device_types"},
		{"too many slots", 250, 3, 3, gpus(250), "layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.devices, tt.persistence, tt.boxing, tt.types)
			require.Error(t, err)
			assert.True(t, ir.IsConfigError(err))

			var ie *ir.IDError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestLayoutFillsSlotField(t *testing.T) {
	// 253 + 1 + 1 + comm-net = 256 slots, the full 8-bit field.
	l, err := NewLayout(253, 1, 1, ir.UniformDeviceTypes(253, ir.DeviceTypeGPU))
	require.NoError(t, err)
	assert.Equal(t, MaxSlots, l.SlotCount())
	assert.Equal(t, ir.ThreadID(255), l.CommNetThreadID())
}

func TestLayoutCopiesDeviceTable(t *testing.T) {
	table := []ir.DeviceType{ir.DeviceTypeGPU}
	l, err := NewLayout(1, 1, 1, table)
	require.NoError(t, err)

	table[0] = ir.DeviceTypeCPU
	d, err := l.DeviceTypeFromThreadID(0)
	require.NoError(t, err)
	assert.Equal(t, ir.DeviceTypeGPU, d)
}

func TestLayoutSlots(t *testing.T) {
	l, err := NewLayout(1, 1, 1, []ir.DeviceType{ir.DeviceTypeGPU})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		{ThreadID: 0, Category: "compute", DeviceType: ir.DeviceTypeGPU},
		{ThreadID: 1, Category: "persistence", DeviceType: ir.DeviceTypeCPU},
		{ThreadID: 2, Category: "boxing", DeviceType: ir.DeviceTypeCPU},
		{ThreadID: 3, Category: "comm_net", DeviceType: ir.DeviceTypeCPU},
	}, l.Slots())
}
