// Package harness runs YAML plan scenarios against a fresh idmgr.Manager.
//
// A scenario names a cluster (inline or as a CUE descriptor path), a fixed
// plan token and an ordered list of steps. Each step calls one Manager or
// Decoder operation and may carry an expect clause with the value, decoded
// fields or error code it should produce. After the steps the plan is
// frozen and the manifest is checked against the scenario's assertions.
//
// Scenarios are deterministic: the same scenario always yields the same
// manifest bytes, so RunWithGolden can snapshot it.
package harness
