// Package thread lays out each machine's local thread slots and hands out
// pool threads.
//
// Every machine shares one contiguous layout:
//
//	[0, D)              compute device slots
//	[D, D+P)            persistence pool
//	[D+P, D+P+B)        boxing pool
//	D+P+B               comm-net slot
//
// The slot number is what actor ids carry in their 8-bit device slot
// field, so Layout is also the table runtime decoding resolves through.
package thread

import (
	"fmt"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
)

// MaxSlots is the number of thread slots the actor id layout can address.
const MaxSlots = idcodec.MaxSlot + 1

// Category is the kind of worker context a slot belongs to.
type Category int

const (
	CategoryInvalid Category = iota
	CategoryCompute
	CategoryPersistence
	CategoryBoxing
	CategoryCommNet
)

func (c Category) String() string {
	switch c {
	case CategoryCompute:
		return "compute"
	case CategoryPersistence:
		return "persistence"
	case CategoryBoxing:
		return "boxing"
	case CategoryCommNet:
		return "comm_net"
	default:
		return "invalid"
	}
}

// Layout is the immutable per-machine slot table.
type Layout struct {
	deviceCount     int
	persistencePool int
	boxingPool      int
	deviceTypes     []ir.DeviceType
}

// NewLayout validates the slot layout. Zero-sized pools are rejected here
// rather than failing every later allocation.
func NewLayout(deviceCount, persistencePool, boxingPool int, deviceTypes []ir.DeviceType) (*Layout, error) {
	if deviceCount < 0 {
		return nil, ir.NewConfigError("device_count", "device count %d is negative", deviceCount)
	}
	if persistencePool <= 0 {
		return nil, ir.NewConfigError("persistence_pool_size", "persistence pool size must be positive, got %d", persistencePool)
	}
	if boxingPool <= 0 {
		return nil, ir.NewConfigError("boxing_pool_size", "boxing pool size must be positive, got %d", boxingPool)
	}
	if len(deviceTypes) != deviceCount {
		return nil, ir.NewConfigError("device_types", "device type table has %d entries, want %d", len(deviceTypes), deviceCount)
	}
	for i, d := range deviceTypes {
		if d != ir.DeviceTypeCPU && d != ir.DeviceTypeGPU {
			return nil, ir.NewConfigError("device_types", "slot %d has unsupported device type %s", i, d)
		}
	}

	total := deviceCount + persistencePool + boxingPool + 1
	if total > MaxSlots {
		return nil, ir.NewConfigError("layout", "%d thread slots exceed the %d addressable by the device slot field", total, MaxSlots)
	}

	return &Layout{
		deviceCount:     deviceCount,
		persistencePool: persistencePool,
		boxingPool:      boxingPool,
		deviceTypes:     append([]ir.DeviceType(nil), deviceTypes...),
	}, nil
}

// DeviceCount returns D.
func (l *Layout) DeviceCount() int { return l.deviceCount }

// PersistencePoolSize returns P.
func (l *Layout) PersistencePoolSize() int { return l.persistencePool }

// BoxingPoolSize returns B.
func (l *Layout) BoxingPoolSize() int { return l.boxingPool }

// SlotCount is the number of slots on each machine, comm-net included.
func (l *Layout) SlotCount() int {
	return l.deviceCount + l.persistencePool + l.boxingPool + 1
}

// Contains reports whether t is a slot of this layout.
func (l *Layout) Contains(t ir.ThreadID) bool {
	return t >= 0 && int(t) < l.SlotCount()
}

func (l *Layout) persistenceBase() ir.ThreadID { return ir.ThreadID(l.deviceCount) }

func (l *Layout) boxingBase() ir.ThreadID {
	return ir.ThreadID(l.deviceCount + l.persistencePool)
}

// CommNetThreadID is the fixed comm-net slot, the same on every machine.
func (l *Layout) CommNetThreadID() ir.ThreadID {
	return ir.ThreadID(l.deviceCount + l.persistencePool + l.boxingPool)
}

// Category returns which part of the layout t falls in.
func (l *Layout) Category(t ir.ThreadID) Category {
	switch {
	case !l.Contains(t):
		return CategoryInvalid
	case t < l.persistenceBase():
		return CategoryCompute
	case t < l.boxingBase():
		return CategoryPersistence
	case t < l.CommNetThreadID():
		return CategoryBoxing
	default:
		return CategoryCommNet
	}
}

// DeviceTypeFromThreadID resolves a slot to its device type. Compute slots
// map through the device type table; every other slot runs on the host.
func (l *Layout) DeviceTypeFromThreadID(t ir.ThreadID) (ir.DeviceType, error) {
	switch l.Category(t) {
	case CategoryCompute:
		return l.deviceTypes[t], nil
	case CategoryInvalid:
		return ir.DeviceTypeInvalid, ir.NewNotFoundError("thread_id", "thread %d is outside the %d-slot layout", t, l.SlotCount())
	default:
		return ir.DeviceTypeCPU, nil
	}
}

// Slot describes one entry of the layout.
type Slot struct {
	ThreadID   ir.ThreadID   `json:"thread_id"`
	Category   string        `json:"category"`
	DeviceType ir.DeviceType `json:"device_type"`
}

// Slots lists the layout in slot order.
func (l *Layout) Slots() []Slot {
	out := make([]Slot, l.SlotCount())
	for i := range out {
		t := ir.ThreadID(i)
		d, _ := l.DeviceTypeFromThreadID(t)
		out[i] = Slot{ThreadID: t, Category: l.Category(t).String(), DeviceType: d}
	}
	return out
}

// String summarizes the layout, e.g. "compute[0,4) persistence[4,6) boxing[6,8) comm_net=8".
func (l *Layout) String() string {
	return fmt.Sprintf("compute[0,%d) persistence[%d,%d) boxing[%d,%d) comm_net=%d",
		l.persistenceBase(),
		l.persistenceBase(), l.boxingBase(),
		l.boxingBase(), l.CommNetThreadID(),
		l.CommNetThreadID())
}
