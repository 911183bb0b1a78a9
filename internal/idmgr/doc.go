// Package idmgr is the identifier context of one compiled execution plan.
//
// A Manager is built once from a cluster resource descriptor when plan
// compilation starts and is passed explicitly to the planner. There is no
// process-wide instance; independent plans get independent managers.
//
// LIFECYCLE:
//
//	compile:  New(spec) -> MachineID / Allocate*ThreadID / NewTaskID / NewRegstDescID
//	freeze:   Freeze() -> PlanManifest (every later mutation fails with FROZEN)
//	runtime:  Decoder() -> MachineIDOf / ThreadIDOf / DeviceTypeFromID
//
// CONCURRENCY:
//
// The compile-phase components carry no locks. A Manager created with
// WithSynchronized guards every mutation with one mutex, which is required
// when the planner places work from several goroutines. A Decoder is
// immutable and safe for any number of concurrent readers.
//
// DETERMINISM:
//
// Allocation depends only on call order. Mint records are stamped by a
// logical clock, never wall-clock time, so the same planning sequence
// yields a byte-identical manifest.
package idmgr
