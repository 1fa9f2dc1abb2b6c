package engine

import (
	"context"

	"github.com/roach88/lifesync/internal/model"
)

// Ledger maps normalized task keys to the task the engine believes exists
// under the configured parent.
//
// The ledger is rebuilt from the task service at the start of every cycle
// and never updated from it incrementally. Tasks the engine creates during
// a cycle are added with Remember right away so that a second candidate
// with the same key in the same cycle is suppressed without another
// listing.
//
// INVARIANTS:
//   - At most one entry per key
//   - In incomplete-only mode every entry is active
//   - In full-listing mode an active task shadows completed ones
//
// Not safe for concurrent use; the Synchronizer is its only owner.
type Ledger struct {
	tasks            TaskService
	includeCompleted bool
	entries          map[string]model.Task
}

// NewLedger creates an empty ledger over tasks. With includeCompleted the
// refresh uses the unfiltered listing, which makes completed tasks visible
// so they can be re-created.
func NewLedger(tasks TaskService, includeCompleted bool) *Ledger {
	return &Ledger{
		tasks:            tasks,
		includeCompleted: includeCompleted,
		entries:          make(map[string]model.Task),
	}
}

// Refresh replaces the ledger's contents with the current listing.
//
// On failure the ledger is left empty and an UPSTREAM_LIST error is
// returned. The caller decides whether to continue; the Synchronizer does,
// accepting the risk of duplicate creations for that cycle.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.entries = make(map[string]model.Task)

	tasks, err := l.tasks.ListTasks(ctx, !l.includeCompleted)
	if err != nil {
		return NewListError(err)
	}

	for _, t := range tasks {
		key := t.Key()
		if prev, ok := l.entries[key]; ok && !prev.Completed && t.Completed {
			continue
		}
		l.entries[key] = t
	}
	return nil
}

// Lookup returns the task recorded under key.
func (l *Ledger) Lookup(key string) (model.Task, bool) {
	t, ok := l.entries[key]
	return t, ok
}

// Remember records a task the engine just created. The record is stored as
// incomplete regardless of what the caller passes.
func (l *Ledger) Remember(key string, task model.Task) {
	task.Completed = false
	l.entries[key] = task
}

// Len returns the number of keys in the ledger.
func (l *Ledger) Len() int {
	return len(l.entries)
}
