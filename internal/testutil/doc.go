// Package testutil provides in-memory stand-ins for the upstream services
// and deterministic id generators for tests.
package testutil
