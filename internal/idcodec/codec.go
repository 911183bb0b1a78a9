// Package idcodec packs and unpacks actor ids.
//
// Layout, high bit to low bit:
//
//	sign | machine | device slot | task seq
//	  1  |   16    |      8      |    39
//
// Every function here is pure and safe for concurrent use.
package idcodec

import (
	"fmt"

	"github.com/roach88/idmgr/internal/ir"
)

// Field widths in bits.
const (
	MachineBits = 16
	SlotBits    = 8
	TaskSeqBits = 39
)

// The three fields must fit below the sign bit. A negative constant
// converted to uint fails to compile.
const _ = uint(63 - (MachineBits + SlotBits + TaskSeqBits))

const (
	taskSeqShift = 0
	slotShift    = TaskSeqBits
	machineShift = TaskSeqBits + SlotBits

	// MaxMachineID is the largest encodable machine id.
	MaxMachineID = 1<<MachineBits - 1
	// MaxSlot is the largest encodable device slot.
	MaxSlot = 1<<SlotBits - 1
	// MaxTaskSeq is the largest encodable task sequence.
	MaxTaskSeq = 1<<TaskSeqBits - 1
)

// Fields are the three decoded parts of an actor id.
type Fields struct {
	MachineID ir.MachineID
	Slot      int64
	TaskSeq   int64
}

// Encode packs the three fields into an actor id.
//
// A field outside its width returns a FATAL error: the plan has outgrown
// the addressing capacity of the scheme.
func Encode(machine ir.MachineID, slot int64, taskSeq int64) (ir.ActorID, error) {
	if machine < 0 || machine > MaxMachineID {
		return 0, ir.NewFatalError("machine_id", machine, ir.NoThread,
			"machine id %d does not fit in %d bits", machine, MachineBits)
	}
	if slot < 0 || slot > MaxSlot {
		return 0, ir.NewFatalError("device_slot", machine, ir.ThreadID(slot),
			"device slot %d does not fit in %d bits", slot, SlotBits)
	}
	if taskSeq < 0 || taskSeq > MaxTaskSeq {
		return 0, ir.NewFatalError("task_seq", machine, ir.ThreadID(slot),
			"task sequence %d does not fit in %d bits", taskSeq, TaskSeqBits)
	}
	return ir.ActorID(int64(machine)<<machineShift | slot<<slotShift | taskSeq<<taskSeqShift), nil
}

// MustEncode is like Encode but panics on error. Intended for tests and
// constants.
func MustEncode(machine ir.MachineID, slot int64, taskSeq int64) ir.ActorID {
	id, err := Encode(machine, slot, taskSeq)
	if err != nil {
		panic(err)
	}
	return id
}

// DecodeMachineID extracts the machine field.
func DecodeMachineID(id ir.ActorID) ir.MachineID {
	return ir.MachineID(int64(id) >> machineShift & MaxMachineID)
}

// DecodeDeviceSlot extracts the device slot field.
func DecodeDeviceSlot(id ir.ActorID) int64 {
	return int64(id) >> slotShift & MaxSlot
}

// DecodeTaskSeq extracts the task sequence field.
func DecodeTaskSeq(id ir.ActorID) int64 {
	return int64(id) >> taskSeqShift & MaxTaskSeq
}

// Decode extracts all three fields.
func Decode(id ir.ActorID) Fields {
	return Fields{
		MachineID: DecodeMachineID(id),
		Slot:      DecodeDeviceSlot(id),
		TaskSeq:   DecodeTaskSeq(id),
	}
}

// ThreadIDOf reconstructs the local thread id of the thread an actor was
// placed on. The device slot stores the thread id directly.
func ThreadIDOf(id ir.ActorID) ir.ThreadID {
	return ir.ThreadID(DecodeDeviceSlot(id))
}

// SlotResolver maps a device slot to a device type. thread.Layout is the
// implementation; it is the same table the allocator placed work with.
type SlotResolver interface {
	DeviceTypeFromThreadID(t ir.ThreadID) (ir.DeviceType, error)
}

// DeviceTypeFromID recovers the device type of the thread an actor id was
// placed on, through the caller's layout.
func DeviceTypeFromID(id ir.ActorID, layout SlotResolver) (ir.DeviceType, error) {
	return layout.DeviceTypeFromThreadID(ThreadIDOf(id))
}

// Format renders an actor id as "machine:slot:seq".
func Format(id ir.ActorID) string {
	f := Decode(id)
	return fmt.Sprintf("%d:%d:%d", f.MachineID, f.Slot, f.TaskSeq)
}
