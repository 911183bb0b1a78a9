package sequencer

import (
	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
)

// ThreadSpace reports which thread ids exist on a machine.
// thread.Layout implements it.
type ThreadSpace interface {
	Contains(t ir.ThreadID) bool
}

type threadKey struct {
	machine ir.MachineID
	thread  ir.ThreadID
}

// TaskSequencer mints actor ids for work placed on a thread.
type TaskSequencer struct {
	machineCount int
	threads      ThreadSpace
	counters     map[threadKey]int64
}

// NewTaskSequencer creates a sequencer for machineCount machines whose
// threads are described by threads.
func NewTaskSequencer(machineCount int, threads ThreadSpace) *TaskSequencer {
	return &TaskSequencer{
		machineCount: machineCount,
		threads:      threads,
		counters:     make(map[threadKey]int64),
	}
}

// NewTaskID returns a new actor id on thread t of machine m.
//
// Each call consumes one sequence number; two calls never return the same
// id. Running out of sequence numbers on a thread is FATAL.
func (s *TaskSequencer) NewTaskID(m ir.MachineID, t ir.ThreadID) (ir.TaskID, error) {
	if m < 0 || int(m) >= s.machineCount {
		return 0, &ir.IDError{
			Code:      ir.ErrCodeNotFound,
			Message:   "machine is not registered",
			Field:     "machine_id",
			MachineID: m,
			ThreadID:  t,
		}
	}
	if !s.threads.Contains(t) {
		return 0, &ir.IDError{
			Code:      ir.ErrCodeNotFound,
			Message:   "thread is not part of the machine layout",
			Field:     "thread_id",
			MachineID: m,
			ThreadID:  t,
		}
	}

	key := threadKey{machine: m, thread: t}
	seq := s.counters[key]
	if seq > idcodec.MaxTaskSeq {
		return 0, ir.NewFatalError("task_seq", m, t,
			"thread exhausted all %d task sequence numbers", int64(idcodec.MaxTaskSeq)+1)
	}

	id, err := idcodec.Encode(m, int64(t), seq)
	if err != nil {
		return 0, err
	}
	s.counters[key] = seq + 1
	return id, nil
}

// Peek returns the sequence number the next NewTaskID(m, t) would use.
func (s *TaskSequencer) Peek(m ir.MachineID, t ir.ThreadID) int64 {
	return s.counters[threadKey{machine: m, thread: t}]
}

// Threads returns how many distinct threads have been given tasks.
func (s *TaskSequencer) Threads() int {
	return len(s.counters)
}
