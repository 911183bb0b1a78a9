package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/idmgr/internal/ir"
)

func TestNewRegstDescIDSequential(t *testing.T) {
	var a RegstDescAllocator

	for want := 0; want < 5; want++ {
		assert.Equal(t, ir.RegstDescID(want), a.NewRegstDescID())
	}
	assert.Equal(t, int64(5), a.Count())
}

func TestRegstDescAllocatorsIndependent(t *testing.T) {
	var a, b RegstDescAllocator
	a.NewRegstDescID()
	a.NewRegstDescID()

	assert.Equal(t, ir.RegstDescID(0), b.NewRegstDescID())
	assert.Equal(t, ir.RegstDescID(2), a.NewRegstDescID())
}
