package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedTokenGenerator(t *testing.T) {
	g := NewFixedTokenGenerator("plan-1")
	assert.Equal(t, "plan-1", g.Generate())
	assert.Equal(t, "plan-1", g.Generate())

	assert.Equal(t, "test-plan-default", NewFixedTokenGenerator("").Generate())
}

func TestTwoMachineCluster(t *testing.T) {
	c := TwoMachineCluster()
	assert.Len(t, c.Machines, 2)
	assert.Equal(t, "m1", c.Machines[1].Name)
	assert.Equal(t, 1, *c.Machines[1].Rank)
	assert.Len(t, c.DeviceTypes, 4)
}
