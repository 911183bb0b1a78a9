package compiler

import (
	"fmt"

	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/machine"
	"github.com/roach88/idmgr/internal/thread"
)

// Validation error codes (E120-E139)
const (
	// General validation errors (E120)
	ErrNilCluster = "E120" // no cluster spec to validate

	// Machine errors (E121-E126)
	ErrNoMachines       = "E121" // at least one machine required
	ErrTooManyMachines  = "E122" // more machines than the id layout addresses
	ErrEmptyMachineName = "E123" // machine name is blank
	ErrDuplicateMachine = "E124" // two machines normalize to the same name
	ErrRankOutOfRange   = "E125" // rank outside [0, machine count)
	ErrDuplicateRank    = "E126" // two machines share a rank
	ErrPartialRanks     = "E127" // some machines ranked, others not

	// Thread layout errors (E130-E134)
	ErrNegativeDeviceCount = "E130" // device_count below zero
	ErrPoolSize            = "E131" // pool size must be positive
	ErrDeviceTypeTable     = "E132" // device type table length or entry invalid
	ErrSlotOverflow        = "E133" // total slots exceed the device slot field
)

// ValidationError represents a cluster validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled cluster spec.
// Returns all errors found (does not fail-fast). A spec that passes is
// accepted by idmgr.New.
func Validate(spec *ir.ClusterSpec) []ValidationError {
	if spec == nil {
		return []ValidationError{{
			Field:   "cluster",
			Message: "cluster spec is nil",
			Code:    ErrNilCluster,
		}}
	}

	var errs []ValidationError
	errs = append(errs, validateMachines(spec.Machines)...)
	errs = append(errs, validateLayout(spec)...)
	return errs
}

func validateMachines(entries []ir.MachineEntry) []ValidationError {
	var errs []ValidationError

	if len(entries) == 0 {
		return []ValidationError{{
			Field:   "machines",
			Message: "at least one machine is required",
			Code:    ErrNoMachines,
		}}
	}
	if len(entries) > machine.MaxMachines {
		errs = append(errs, ValidationError{
			Field:   "machines",
			Message: fmt.Sprintf("%d machines exceed the %d addressable ids", len(entries), machine.MaxMachines),
			Code:    ErrTooManyMachines,
		})
	}

	names := make(map[string]int, len(entries))
	ranks := make(map[int]int, len(entries))
	for i, e := range entries {
		field := fmt.Sprintf("machines[%d]", i)

		name := machine.NormalizeName(e.Name)
		if machine.BlankName(name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "machine name must be non-empty",
				Code:    ErrEmptyMachineName,
			})
		} else if prev, ok := names[name]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("machine %q already declared at machines[%d]", name, prev),
				Code:    ErrDuplicateMachine,
			})
		} else {
			names[name] = i
		}

		// Unranked machines take their position.
		rank := i
		if e.Rank != nil {
			rank = *e.Rank
		}
		if rank < 0 || rank >= len(entries) {
			errs = append(errs, ValidationError{
				Field:   field + ".rank",
				Message: fmt.Sprintf("rank %d outside [0, %d)", rank, len(entries)),
				Code:    ErrRankOutOfRange,
			})
			continue
		}
		if prev, ok := ranks[rank]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".rank",
				Message: fmt.Sprintf("rank %d already used by machines[%d]", rank, prev),
				Code:    ErrDuplicateRank,
			})
			continue
		}
		ranks[rank] = i
	}

	return errs
}

func validateLayout(spec *ir.ClusterSpec) []ValidationError {
	var errs []ValidationError

	if spec.DeviceCount < 0 {
		errs = append(errs, ValidationError{
			Field:   "device_count",
			Message: fmt.Sprintf("device count %d is negative", spec.DeviceCount),
			Code:    ErrNegativeDeviceCount,
		})
	}
	if spec.PersistencePoolSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "persistence_pool_size",
			Message: fmt.Sprintf("must be positive, got %d", spec.PersistencePoolSize),
			Code:    ErrPoolSize,
		})
	}
	if spec.BoxingPoolSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "boxing_pool_size",
			Message: fmt.Sprintf("must be positive, got %d", spec.BoxingPoolSize),
			Code:    ErrPoolSize,
		})
	}

	if spec.DeviceCount >= 0 && len(spec.DeviceTypes) != spec.DeviceCount {
		errs = append(errs, ValidationError{
			Field:   "device_types",
			Message: fmt.Sprintf("device type table has %d entries, want %d", len(spec.DeviceTypes), spec.DeviceCount),
			Code:    ErrDeviceTypeTable,
		})
	}
	for i, d := range spec.DeviceTypes {
		if d != ir.DeviceTypeCPU && d != ir.DeviceTypeGPU {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("device_types[%d]", i),
				Message: fmt.Sprintf("unsupported device type %s", d),
				Code:    ErrDeviceTypeTable,
			})
		}
	}

	total := spec.DeviceCount + spec.PersistencePoolSize + spec.BoxingPoolSize + 1
	if total > thread.MaxSlots {
		errs = append(errs, ValidationError{
			Field:   "layout",
			Message: fmt.Sprintf("%d thread slots exceed the %d addressable by the device slot field", total, thread.MaxSlots),
			Code:    ErrSlotOverflow,
		})
	}

	return errs
}
