// Package model provides the record types shared by the sync engine and its
// upstream clients.
//
// This package contains type definitions only. All other internal packages
// may import model; model imports nothing internal.
//
// Key design constraints:
//   - Records carry only the fields the engine reads
//   - All JSON tags use snake_case
//   - Records handed to the engine are never mutated by it
package model
