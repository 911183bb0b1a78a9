// Package ir provides the shared identifier types for idmgr.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the id representation
// the foundational layer with no circular dependencies.
//
// 64-bit actor id layout (bit 63 is the sign bit and always 0):
//
//	sign | machine | device slot | task seq
//	  1  |   16    |      8      |    39
//
// The device slot field stores the local ThreadID of the thread a task was
// placed on. thread.Layout is the single table mapping that slot back to a
// DeviceType, for both raw thread ids and encoded actor ids.
//
// Key design constraints:
//   - ids are plain int64 values so they embed into a serialized plan as-is
//   - all JSON tags use snake_case
//   - manifests are ordered by a logical clock, never wall-clock time
package ir
