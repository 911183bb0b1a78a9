package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idmgr/internal/ir"
)

func entries(names ...string) []ir.MachineEntry {
	out := make([]ir.MachineEntry, len(names))
	for i, n := range names {
		out[i] = ir.MachineEntry{Name: n}
	}
	return out
}

func TestNewRegistryByPosition(t *testing.T) {
	r, err := NewRegistry(entries("m0", "m1", "m2"))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	for i, name := range []string{"m0", "m1", "m2"} {
		id, err := r.MachineID(name)
		require.NoError(t, err)
		assert.Equal(t, ir.MachineID(i), id)

		got, err := r.MachineName(id)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}

func TestNewRegistryByRank(t *testing.T) {
	r, err := NewRegistry([]ir.MachineEntry{
		{Name: "worker-b", Rank: ir.IntPtr(1)},
		{Name: "worker-a", Rank: ir.IntPtr(0)},
	})
	require.NoError(t, err)

	id, err := r.MachineID("worker-b")
	require.NoError(t, err)
	assert.Equal(t, ir.MachineID(1), id)

	assert.Equal(t, []Machine{
		{ID: 0, Name: "worker-a"},
		{ID: 1, Name: "worker-b"},
	}, r.Machines())
}

func TestNewRegistryConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []ir.MachineEntry
		msg     string
	}{
		{
			name:    "duplicate name",
			entries: entries("m0", "m0"),
			msg:     "duplicate machine name",
		},
		{
			name: "duplicate rank",
			entries: []ir.MachineEntry{
				{Name: "m0", Rank: ir.IntPtr(0)},
				{Name: "m1", Rank: ir.IntPtr(0)},
			},
			msg: "duplicate rank",
		},
		{
			name:    "rank out of range",
			entries: []ir.MachineEntry{{Name: "m0", Rank: ir.IntPtr(3)}},
			msg:     "outside",
		},
		{
			name:    "empty name",
			entries: entries("m0", "  "),
			msg:     "empty name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entries)
			require.Error(t, err)
			assert.True(t, ir.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNewRegistryTooManyMachines(t *testing.T) {
	many := make([]ir.MachineEntry, MaxMachines+1)
	_, err := NewRegistry(many)
	assert.True(t, ir.IsConfigError(err))
}

func TestRegistryNotFound(t *testing.T) {
	r, err := NewRegistry(entries("m0", "m1"))
	require.NoError(t, err)

	_, err = r.MachineID("unknown")
	assert.True(t, ir.IsNotFound(err))

	_, err = r.MachineName(999)
	assert.True(t, ir.IsNotFound(err))

	_, err = r.MachineName(-1)
	assert.True(t, ir.IsNotFound(err))
}

func TestRegistryNormalizesNames(t *testing.T) {
	precomposed := "node-\u00e9"
	decomposed := "node-e\u0301"

	r, err := NewRegistry(entries(precomposed))
	require.NoError(t, err)

	id, err := r.MachineID(decomposed)
	require.NoError(t, err)
	assert.Equal(t, ir.MachineID(0), id)

	_, err = NewRegistry(entries(precomposed, decomposed))
	assert.True(t, ir.IsConfigError(err), "normalized duplicates are rejected")
}

func TestRegistryKeepsSurroundingWhitespace(t *testing.T) {
	r, err := NewRegistry(entries("m0", " m0", "m0 "))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	for want, name := range []string{"m0", " m0", "m0 "} {
		id, err := r.MachineID(name)
		require.NoError(t, err)
		assert.Equal(t, ir.MachineID(want), id, "name %q", name)
	}

	_, err = r.MachineID("  m0")
	assert.True(t, ir.IsNotFound(err))
}

func TestRegistryRejectsBlankNames(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n"} {
		_, err := NewRegistry(entries("m0", name))
		assert.True(t, ir.IsConfigError(err), "name %q", name)
	}
}

func TestEmptyRegistry(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains(0))
}
