// Package store provides the SQLite run journal.
//
// Every finished cycle is appended as one row in cycles plus one row per
// candidate outcome in outcomes. The journal is for operators (the history
// command); the engine never reads it, so deduplication state still does
// not survive a restart.
//
// # Ordering
//
// Listings are newest first: ORDER BY recorded_at DESC, id DESC COLLATE
// BINARY. Cycle ids are UUIDv7, so the id tiebreak is also chronological.
// Outcomes of a cycle come back in candidate order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
