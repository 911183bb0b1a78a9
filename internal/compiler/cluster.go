// Package compiler turns a CUE cluster resource descriptor into an
// ir.ClusterSpec and validates it.
//
// A descriptor looks like:
//
//	cluster: {
//		device_count: 4
//		device_type:  "gpu"
//		persistence_pool_size: 2
//		boxing_pool_size: 2
//		machines: [
//			{name: "m0", rank: 0},
//			{name: "m1", rank: 1},
//		]
//	}
//
// device_types (a list, one entry per compute slot) may replace
// device_type. A machine may be written as a bare name string, in which
// case its rank is its position.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/idmgr/internal/ir"
)

// ClusterPath is the top-level field holding the descriptor.
const ClusterPath = "cluster"

// LoadCluster reads a descriptor from a .cue file or a directory of them
// and compiles its cluster field.
func LoadCluster(path string) (*ir.ClusterSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cluster descriptor: %w", err)
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("cluster descriptor: no CUE instances in %s", path)
		}
		if instances[0].Err != nil {
			return nil, formatCUEError(instances[0].Err)
		}
		value = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cluster descriptor: %w", err)
		}
		value = ctx.CompileBytes(data, cue.Filename(path))
	}
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	clusterVal := value.LookupPath(cue.ParsePath(ClusterPath))
	if !clusterVal.Exists() {
		return nil, &CompileError{
			Field:   ClusterPath,
			Message: "no cluster field found",
			Pos:     value.Pos(),
		}
	}
	return CompileCluster(clusterVal)
}

// CompileCluster parses the cluster struct into a ClusterSpec.
// It checks shape and types only; see Validate for consistency rules.
func CompileCluster(v cue.Value) (*ir.ClusterSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ClusterSpec{}
	var err error

	if spec.DeviceCount, err = requiredInt(v, "device_count"); err != nil {
		return nil, err
	}
	if spec.PersistencePoolSize, err = requiredInt(v, "persistence_pool_size"); err != nil {
		return nil, err
	}
	if spec.BoxingPoolSize, err = requiredInt(v, "boxing_pool_size"); err != nil {
		return nil, err
	}
	if spec.DeviceTypes, err = parseDeviceTypes(v, spec.DeviceCount); err != nil {
		return nil, err
	}
	if spec.Machines, err = parseMachines(v); err != nil {
		return nil, err
	}

	return spec, nil
}

func requiredInt(v cue.Value, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: "must be an integer", Pos: fv.Pos()}
	}
	return int(n), nil
}

// parseDeviceTypes accepts either device_type (applied to every compute
// slot) or device_types (one per slot). Neither means a CPU-only cluster.
func parseDeviceTypes(v cue.Value, deviceCount int) ([]ir.DeviceType, error) {
	single := v.LookupPath(cue.ParsePath("device_type"))
	list := v.LookupPath(cue.ParsePath("device_types"))

	if single.Exists() && list.Exists() {
		return nil, &CompileError{
			Field:   "device_types",
			Message: "set device_type or device_types, not both",
			Pos:     list.Pos(),
		}
	}

	if single.Exists() {
		d, err := parseDeviceType(single, "device_type")
		if err != nil {
			return nil, err
		}
		if deviceCount < 0 {
			return nil, &CompileError{
				Field:   "device_count",
				Message: fmt.Sprintf("device_type cannot cover %d slots", deviceCount),
				Pos:     v.LookupPath(cue.ParsePath("device_count")).Pos(),
			}
		}
		return ir.UniformDeviceTypes(deviceCount, d), nil
	}

	if list.Exists() {
		iter, err := list.List()
		if err != nil {
			return nil, &CompileError{Field: "device_types", Message: "must be a list of device names", Pos: list.Pos()}
		}
		var types []ir.DeviceType
		for iter.Next() {
			d, err := parseDeviceType(iter.Value(), "device_types")
			if err != nil {
				return nil, err
			}
			types = append(types, d)
		}
		return types, nil
	}

	if deviceCount > 0 {
		return ir.UniformDeviceTypes(deviceCount, ir.DeviceTypeCPU), nil
	}
	return nil, nil
}

func parseDeviceType(v cue.Value, field string) (ir.DeviceType, error) {
	s, err := v.String()
	if err != nil {
		return ir.DeviceTypeInvalid, &CompileError{Field: field, Message: "must be a device name string", Pos: v.Pos()}
	}
	d, err := ir.ParseDeviceType(s)
	if err != nil {
		return ir.DeviceTypeInvalid, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return d, nil
}

func parseMachines(v cue.Value) ([]ir.MachineEntry, error) {
	mv := v.LookupPath(cue.ParsePath("machines"))
	if !mv.Exists() {
		return nil, &CompileError{Field: "machines", Message: "machines is required", Pos: v.Pos()}
	}
	iter, err := mv.List()
	if err != nil {
		return nil, &CompileError{Field: "machines", Message: "must be a list", Pos: mv.Pos()}
	}

	var entries []ir.MachineEntry
	for iter.Next() {
		entry, err := parseMachine(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseMachine(v cue.Value) (ir.MachineEntry, error) {
	if name, err := v.String(); err == nil {
		return ir.MachineEntry{Name: name}, nil
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return ir.MachineEntry{}, &CompileError{Field: "machines.name", Message: "machine name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return ir.MachineEntry{}, &CompileError{Field: "machines.name", Message: "must be a string", Pos: nameVal.Pos()}
	}
	entry := ir.MachineEntry{Name: name}

	rankVal := v.LookupPath(cue.ParsePath("rank"))
	if rankVal.Exists() {
		rank, err := rankVal.Int64()
		if err != nil {
			return ir.MachineEntry{}, &CompileError{Field: "machines.rank", Message: "must be an integer", Pos: rankVal.Pos()}
		}
		entry.Rank = ir.IntPtr(int(rank))
	}
	return entry, nil
}
