package idmgr

import (
	"fmt"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/machine"
	"github.com/roach88/idmgr/internal/thread"
)

// Decoder answers runtime questions about actor ids by arithmetic and a
// fixed-size table lookup. It is immutable and safe for concurrent use.
type Decoder struct {
	registry *machine.Registry
	layout   *thread.Layout
}

// NewDecoder builds a Decoder straight from a cluster descriptor, for
// executors that never ran the compile phase.
func NewDecoder(spec ir.ClusterSpec) (*Decoder, error) {
	registry, err := machine.NewRegistry(spec.Machines)
	if err != nil {
		return nil, fmt.Errorf("machine registry: %w", err)
	}
	layout, err := thread.NewLayout(spec.DeviceCount, spec.PersistencePoolSize, spec.BoxingPoolSize, spec.DeviceTypes)
	if err != nil {
		return nil, fmt.Errorf("thread layout: %w", err)
	}
	return &Decoder{registry: registry, layout: layout}, nil
}

// Layout returns the slot table used for device type resolution.
func (d *Decoder) Layout() *thread.Layout {
	return d.layout
}

// Machines lists the registered machines in id order.
func (d *Decoder) Machines() []machine.Machine {
	return d.registry.Machines()
}

// MachineIDOf decodes the machine an actor runs on.
func (d *Decoder) MachineIDOf(id ir.ActorID) ir.MachineID {
	return idcodec.DecodeMachineID(id)
}

// ThreadIDOf decodes the local thread an actor runs on.
func (d *Decoder) ThreadIDOf(id ir.ActorID) ir.ThreadID {
	return idcodec.ThreadIDOf(id)
}

// TaskSeqOf decodes the task sequence of an actor.
func (d *Decoder) TaskSeqOf(id ir.ActorID) int64 {
	return idcodec.DecodeTaskSeq(id)
}

// DeviceTypeFromThreadID resolves a local thread id.
func (d *Decoder) DeviceTypeFromThreadID(t ir.ThreadID) (ir.DeviceType, error) {
	return d.layout.DeviceTypeFromThreadID(t)
}

// DeviceTypeFromID resolves the device type of the thread an actor runs on.
func (d *Decoder) DeviceTypeFromID(id ir.ActorID) (ir.DeviceType, error) {
	return idcodec.DeviceTypeFromID(id, d.layout)
}

// MachineName resolves a machine id.
func (d *Decoder) MachineName(id ir.MachineID) (string, error) {
	return d.registry.MachineName(id)
}

// ActorInfo is everything an actor id says about itself.
type ActorInfo struct {
	ID          ir.ActorID    `json:"id"`
	MachineID   ir.MachineID  `json:"machine_id"`
	MachineName string        `json:"machine_name"`
	ThreadID    ir.ThreadID   `json:"thread_id"`
	Category    string        `json:"category"`
	DeviceType  ir.DeviceType `json:"device_type"`
	TaskSeq     int64         `json:"task_seq"`
}

// Describe decodes every field of id and resolves it against the plan.
// Unlike the individual decode functions it fails with NOT_FOUND when id
// names a machine or thread this plan does not have.
func (d *Decoder) Describe(id ir.ActorID) (ActorInfo, error) {
	if id < 0 {
		return ActorInfo{}, ir.NewNotFoundError("actor_id", "actor id %d is negative", int64(id))
	}
	mid := d.MachineIDOf(id)
	name, err := d.MachineName(mid)
	if err != nil {
		return ActorInfo{}, err
	}
	tid := d.ThreadIDOf(id)
	dt, err := d.DeviceTypeFromThreadID(tid)
	if err != nil {
		return ActorInfo{}, err
	}
	return ActorInfo{
		ID:          id,
		MachineID:   mid,
		MachineName: name,
		ThreadID:    tid,
		Category:    d.layout.Category(tid).String(),
		DeviceType:  dt,
		TaskSeq:     d.TaskSeqOf(id),
	}, nil
}
