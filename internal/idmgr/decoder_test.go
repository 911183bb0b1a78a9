package idmgr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
	tu "github.com/roach88/idmgr/internal/testutil"
)

func TestDecoderDeviceTypes(t *testing.T) {
	m := newTestManager(t)
	dec := m.Decoder()

	compute, err := m.NewTaskID(0, 2)
	require.NoError(t, err)
	boxingThread, err := m.AllocateBoxingThreadID(0)
	require.NoError(t, err)
	boxing, err := m.NewTaskID(0, boxingThread)
	require.NoError(t, err)
	comm, err := m.NewTaskID(1, m.CommNetThreadID())
	require.NoError(t, err)

	tests := []struct {
		name string
		id   ir.ActorID
		want ir.DeviceType
	}{
		{"compute slot", compute, ir.DeviceTypeGPU},
		{"boxing slot", boxing, ir.DeviceTypeCPU},
		{"comm-net slot", comm, ir.DeviceTypeCPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dec.DeviceTypeFromID(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Both lookup paths agree.
			viaThread, err := dec.DeviceTypeFromThreadID(dec.ThreadIDOf(tt.id))
			require.NoError(t, err)
			assert.Equal(t, got, viaThread)
		})
	}
}

func TestDecoderFromSpecMatchesManager(t *testing.T) {
	m := newTestManager(t)
	id, err := m.NewTaskID(1, 7)
	require.NoError(t, err)

	dec, err := NewDecoder(tu.TwoMachineCluster())
	require.NoError(t, err)

	info, err := dec.Describe(id)
	require.NoError(t, err)
	assert.Equal(t, ActorInfo{
		ID:          id,
		MachineID:   1,
		MachineName: "m1",
		ThreadID:    7,
		Category:    "boxing",
		DeviceType:  ir.DeviceTypeCPU,
		TaskSeq:     0,
	}, info)
}

func TestDescribeUnknownFields(t *testing.T) {
	dec, err := NewDecoder(tu.TwoMachineCluster())
	require.NoError(t, err)

	_, err = dec.Describe(idcodec.MustEncode(5, 0, 0))
	assert.True(t, ir.IsNotFound(err), "machine outside the plan")

	_, err = dec.Describe(idcodec.MustEncode(0, 9, 0))
	assert.True(t, ir.IsNotFound(err), "thread outside the layout")

	_, err = dec.Describe(-1)
	assert.True(t, ir.IsNotFound(err))
}

func TestNewDecoderRejectsBadCluster(t *testing.T) {
	spec := tu.TwoMachineCluster()
	spec.DeviceTypes = spec.DeviceTypes[:2]
	_, err := NewDecoder(spec)
	assert.True(t, ir.IsConfigError(err))
}

func TestDecoderConcurrentReads(t *testing.T) {
	m := newTestManager(t)
	id, err := m.NewTaskID(1, 1)
	require.NoError(t, err)
	dec := m.Decoder()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d, err := dec.DeviceTypeFromID(id)
				if err != nil || d != ir.DeviceTypeGPU {
					t.Errorf("DeviceTypeFromID = %v, %v", d, err)
					return
				}
				if dec.MachineIDOf(id) != 1 {
					t.Errorf("MachineIDOf = %d", dec.MachineIDOf(id))
					return
				}
			}
		}()
	}
	wg.Wait()
}
