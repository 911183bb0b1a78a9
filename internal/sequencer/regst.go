package sequencer

import "github.com/roach88/idmgr/internal/ir"

// RegstDescAllocator hands out register descriptor ids 0, 1, 2, ...
//
// There is no upper bound check; an int64 is assumed large enough for any
// plan. The zero value is ready to use.
type RegstDescAllocator struct {
	next int64
}

// NewRegstDescID returns the current counter value and advances it.
func (a *RegstDescAllocator) NewRegstDescID() ir.RegstDescID {
	id := a.next
	a.next++
	return ir.RegstDescID(id)
}

// Count returns how many ids have been handed out.
func (a *RegstDescAllocator) Count() int64 {
	return a.next
}
