package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/lifesync/internal/model"
)

// FakeSource returns scripted batches of transcripts, one per call. After
// the script runs out the last batch repeats, which is what a poll loop
// sees when nothing new was recorded.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeSource struct {
	mu      sync.Mutex
	batches [][]model.Transcript
	failAt  int // 1-based call that fails; 0 = never
	calls   int
}

// NewFakeSource creates a source returning batches in order.
func NewFakeSource(batches ...[]model.Transcript) *FakeSource {
	return &FakeSource{batches: batches}
}

// FailOnCall makes the n-th call (1-based) return an error.
func (s *FakeSource) FailOnCall(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = n
}

// Transcripts implements engine.TranscriptSource.
func (s *FakeSource) Transcripts(ctx context.Context) ([]model.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return nil, fmt.Errorf("fetch transcripts: %w", ErrInjected)
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	i := min(s.calls, len(s.batches)) - 1
	return append([]model.Transcript(nil), s.batches[i]...), nil
}

// Calls returns how many times Transcripts was called.
func (s *FakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
