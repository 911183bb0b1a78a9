// Package sequencer mints task ids and register descriptor ids.
//
// TaskSequencer keeps one monotonic counter per (machine, thread) pair and
// packs the counter value into the task sequence field of an actor id.
// Uniqueness follows from the pair identifying a thread and the counter
// never repeating for that thread.
//
// RegstDescAllocator is a single global counter with no field structure.
//
// Neither type locks. Both are mutated only while a plan compiles on one
// goroutine; idmgr.Manager adds a mutex when compilation is parallel.
package sequencer
