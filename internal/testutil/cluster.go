// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/idmgr/internal/ir"
)

// TwoMachineCluster is the reference cluster: machines m0 (rank 0) and
// m1 (rank 1), four GPUs each, persistence and boxing pools of two.
// Its layout is compute[0,4) persistence[4,6) boxing[6,8) comm_net=8.
func TwoMachineCluster() ir.ClusterSpec {
	return Cluster([]string{"m0", "m1"}, 4, 2, 2)
}

// Cluster builds a GPU cluster whose machines are ranked by position.
func Cluster(names []string, devices, persistence, boxing int) ir.ClusterSpec {
	machines := make([]ir.MachineEntry, len(names))
	for i, n := range names {
		machines[i] = ir.MachineEntry{Name: n, Rank: ir.IntPtr(i)}
	}
	return ir.ClusterSpec{
		Machines:            machines,
		DeviceCount:         devices,
		DeviceTypes:         ir.UniformDeviceTypes(devices, ir.DeviceTypeGPU),
		PersistencePoolSize: persistence,
		BoxingPoolSize:      boxing,
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
