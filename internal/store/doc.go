// Package store provides a SQLite-backed ledger of frozen plan manifests.
//
// The ledger is an export: it records every id a plan compilation minted
// so that tooling can inspect a plan after the compiling process exits.
// Nothing reads it back into a Manager; allocator state is never resumed.
//
// # Tables
//
//   - plans: one row per plan token, with its cluster spec and content hash
//   - mint_records: one row per minted id, keyed by (plan_token, seq)
//
// # Ordering
//
// All ordering uses seq INTEGER (the manager's logical clock), never
// timestamps. Every query that returns records includes ORDER BY seq ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// PRAGMA user_version holds the ledger format; Open refuses any other
// format with ErrLedgerFormat.
//
// Manifest hashes are recomputed via ir.PlanHash on both write and read.
package store
