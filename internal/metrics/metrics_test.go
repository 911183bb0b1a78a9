package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idmgr/internal/ir"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.TaskMinted(ir.DeviceTypeGPU)
	m.TaskMinted(ir.DeviceTypeGPU)
	m.TaskMinted(ir.DeviceTypeCPU)
	m.ThreadAllocated("boxing")
	m.RegstDescMinted()
	m.SetMachines(2)
	m.Failed(ir.NewNotFoundError("machine_name", "nope"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.taskIDs.WithLabelValues("gpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskIDs.WithLabelValues("cpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.threadAllocs.WithLabelValues("boxing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.regstDescIDs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.machines))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsByCode.WithLabelValues("NOT_FOUND")))
}

func TestMetricsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RegstDescMinted()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.regstDescIDs))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.regstDescIDs))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TaskMinted(ir.DeviceTypeGPU)
		m.ThreadAllocated("persistence")
		m.RegstDescMinted()
		m.SetMachines(3)
		m.Failed(ir.NewFrozenError("NewTaskID"))
	})
	assert.Nil(t, m.Registry())
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RegstDescMinted()

	path := filepath.Join(t.TempDir(), "idmgr.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "idmgr_regst_desc_ids_minted_total 1")
}
