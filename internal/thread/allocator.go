package thread

import (
	"github.com/roach88/idmgr/internal/ir"
)

// Allocator hands out persistence and boxing threads round-robin.
//
// Offsets are indexed by machine id. Allocator is not safe for concurrent
// use; it is only mutated during the single-threaded compile phase.
type Allocator struct {
	layout             *Layout
	persistenceOffsets []int
	boxingOffsets      []int
}

// NewAllocator creates an allocator for machineCount machines sharing layout.
func NewAllocator(machineCount int, layout *Layout) *Allocator {
	return &Allocator{
		layout:             layout,
		persistenceOffsets: make([]int, machineCount),
		boxingOffsets:      make([]int, machineCount),
	}
}

// Layout returns the layout the allocator places threads in.
func (a *Allocator) Layout() *Layout {
	return a.layout
}

// AllocatePersistenceThreadID returns the next persistence thread of
// machine m, cycling through the pool from its first slot.
func (a *Allocator) AllocatePersistenceThreadID(m ir.MachineID) (ir.ThreadID, error) {
	if err := a.checkMachine(m); err != nil {
		return 0, err
	}
	offset := a.persistenceOffsets[m]
	a.persistenceOffsets[m] = (offset + 1) % a.layout.persistencePool
	return a.layout.persistenceBase() + ir.ThreadID(offset), nil
}

// AllocateBoxingThreadID returns the next boxing thread of machine m,
// cycling through the pool from its first slot.
func (a *Allocator) AllocateBoxingThreadID(m ir.MachineID) (ir.ThreadID, error) {
	if err := a.checkMachine(m); err != nil {
		return 0, err
	}
	offset := a.boxingOffsets[m]
	a.boxingOffsets[m] = (offset + 1) % a.layout.boxingPool
	return a.layout.boxingBase() + ir.ThreadID(offset), nil
}

// CommNetThreadID returns the comm-net slot. It never mutates state.
func (a *Allocator) CommNetThreadID() ir.ThreadID {
	return a.layout.CommNetThreadID()
}

// DeviceTypeFromThreadID resolves t through the allocator's layout.
func (a *Allocator) DeviceTypeFromThreadID(t ir.ThreadID) (ir.DeviceType, error) {
	return a.layout.DeviceTypeFromThreadID(t)
}

func (a *Allocator) checkMachine(m ir.MachineID) error {
	if m < 0 || int(m) >= len(a.persistenceOffsets) {
		return &ir.IDError{
			Code:      ir.ErrCodeNotFound,
			Message:   "machine is not registered",
			Field:     "machine_id",
			MachineID: m,
			ThreadID:  ir.NoThread,
		}
	}
	return nil
}
