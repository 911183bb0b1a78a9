package ir

import (
	"fmt"
	"strings"
)

// MachineID is the dense small integer identifying one machine in a plan.
type MachineID int64

// ThreadID is a local (per machine) worker slot.
type ThreadID int64

// ActorID is a packed 64-bit task id. See package idcodec for the layout.
type ActorID int64

// TaskID is the compile-time name for an ActorID.
type TaskID = ActorID

// RegstDescID identifies a register descriptor. It has no field structure.
type RegstDescID int64

// DeviceType is the kind of device a thread slot executes on.
type DeviceType int

const (
	DeviceTypeInvalid DeviceType = iota
	// DeviceTypeCPU is the host/control device. Persistence, boxing and
	// comm-net slots always resolve to it.
	DeviceTypeCPU
	DeviceTypeGPU
)

var deviceTypeNames = map[DeviceType]string{
	DeviceTypeInvalid: "invalid",
	DeviceTypeCPU:     "cpu",
	DeviceTypeGPU:     "gpu",
}

// String returns the lower-case device name.
func (d DeviceType) String() string {
	if name, ok := deviceTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("device(%d)", int(d))
}

// ParseDeviceType parses a device name such as "gpu".
func ParseDeviceType(s string) (DeviceType, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for d, name := range deviceTypeNames {
		if d != DeviceTypeInvalid && name == want {
			return d, nil
		}
	}
	return DeviceTypeInvalid, fmt.Errorf("unknown device type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DeviceType) MarshalText() ([]byte, error) {
	if _, ok := deviceTypeNames[d]; !ok || d == DeviceTypeInvalid {
		return nil, fmt.Errorf("cannot marshal device type %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DeviceType) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MachineEntry is one (name, rank) pair of the cluster descriptor.
// A nil Rank means "use the entry's position".
type MachineEntry struct {
	Name string `json:"name" yaml:"name"`
	Rank *int   `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// ClusterSpec is the cluster resource descriptor consumed at initialization.
type ClusterSpec struct {
	Machines            []MachineEntry `json:"machines" yaml:"machines"`
	DeviceCount         int            `json:"device_count" yaml:"device_count"`
	DeviceTypes         []DeviceType   `json:"device_types" yaml:"device_types"`
	PersistencePoolSize int            `json:"persistence_pool_size" yaml:"persistence_pool_size"`
	BoxingPoolSize      int            `json:"boxing_pool_size" yaml:"boxing_pool_size"`
}

// UniformDeviceTypes returns a device type table with n copies of d.
func UniformDeviceTypes(n int, d DeviceType) []DeviceType {
	table := make([]DeviceType, n)
	for i := range table {
		table[i] = d
	}
	return table
}

// IntPtr returns a pointer to n. Used when building MachineEntry ranks.
func IntPtr(n int) *int {
	return &n
}
