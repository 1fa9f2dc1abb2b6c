package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... as cycle ids.
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so
// the same scenario produces byte-identical traces on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "cycle".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "cycle"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id. Implements engine.CycleIDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
