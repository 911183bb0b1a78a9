// Package machine maps machine names to dense machine ids and back.
package machine

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
)

// MaxMachines is the number of machine ids the actor id layout can address.
const MaxMachines = idcodec.MaxMachineID + 1

// Machine is one registered machine.
type Machine struct {
	ID   ir.MachineID `json:"id"`
	Name string       `json:"name"`
}

// Registry is a bijection between machine names and machine ids.
// It is immutable after NewRegistry returns, so lookups need no locking.
type Registry struct {
	byName map[string]ir.MachineID
	byID   []string
}

// NewRegistry assigns each entry the id given by its rank, or its position
// when no rank is set. Ranks must be unique and dense over [0, n).
func NewRegistry(entries []ir.MachineEntry) (*Registry, error) {
	if len(entries) > MaxMachines {
		return nil, ir.NewConfigError("machines", "%d machines exceed the %d addressable ids", len(entries), MaxMachines)
	}

	r := &Registry{
		byName: make(map[string]ir.MachineID, len(entries)),
		byID:   make([]string, len(entries)),
	}
	assigned := make([]bool, len(entries))

	for pos, e := range entries {
		name := NormalizeName(e.Name)
		if BlankName(name) {
			return nil, ir.NewConfigError("machines", "machine at position %d has an empty name", pos)
		}
		if _, dup := r.byName[name]; dup {
			return nil, ir.NewConfigError("machines", "duplicate machine name %q", name)
		}

		rank := pos
		if e.Rank != nil {
			rank = *e.Rank
		}
		if rank < 0 || rank >= len(entries) {
			return nil, ir.NewConfigError("machines", "machine %q has rank %d outside [0, %d)", name, rank, len(entries))
		}
		if assigned[rank] {
			return nil, ir.NewConfigError("machines", "duplicate rank %d (machine %q)", rank, name)
		}

		assigned[rank] = true
		r.byName[name] = ir.MachineID(rank)
		r.byID[rank] = name
	}

	return r, nil
}

// MachineID returns the id registered for name.
func (r *Registry) MachineID(name string) (ir.MachineID, error) {
	id, ok := r.byName[NormalizeName(name)]
	if !ok {
		return 0, ir.NewNotFoundError("machine_name", "machine %q is not registered", name)
	}
	return id, nil
}

// MachineName returns the name registered for id.
func (r *Registry) MachineName(id ir.MachineID) (string, error) {
	if !r.Contains(id) {
		return "", ir.NewNotFoundError("machine_id", "machine id %d is not registered (have %d)", id, len(r.byID))
	}
	return r.byID[id], nil
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ir.MachineID) bool {
	return id >= 0 && int(id) < len(r.byID)
}

// Len returns the number of registered machines.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Machines returns every machine ordered by id.
func (r *Registry) Machines() []Machine {
	out := make([]Machine, len(r.byID))
	for i, name := range r.byID {
		out[i] = Machine{ID: ir.MachineID(i), Name: name}
	}
	return out
}

// NormalizeName makes visually identical names compare equal. Names are
// otherwise opaque: surrounding whitespace is kept.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// BlankName reports whether name has no visible characters.
func BlankName(name string) bool {
	return strings.TrimSpace(name) == ""
}
