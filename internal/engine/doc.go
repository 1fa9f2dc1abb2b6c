// Package engine implements the lifelog-to-task synchronization engine.
//
// A cycle takes a batch of transcripts and reconciles every task phrase
// found in them against the sub-tasks of one parent in the task service.
//
// ARCHITECTURE:
//
// Single goroutine, sequential:
//  1. Poller fetches the most recent transcripts from a TranscriptSource
//  2. Synchronizer.RunCycle refreshes the Ledger from the TaskService
//  3. Each transcript passes the cheap pre-filter or is skipped
//  4. extract.Tasks yields candidates in document order
//  5. Each candidate is skipped, created or re-created, then remembered
//  6. The CycleReport goes to the optional Journal and report handler
//
// The Ledger and ProcessedSentences have a single owner and take no locks.
// Suspension points are the fetch, the listing, each creation and the
// sleep between cycles; cancellation is observed between them, so a cycle
// may end partially applied.
//
// STATE:
//
// Nothing the engine decides with survives a restart. The ledger is rebuilt
// from the task service every cycle and the processed-sentence set starts
// empty. A Journal only receives reports.
//
// ERRORS:
//
// UPSTREAM_FETCH ends the poll loop. UPSTREAM_LIST degrades the cycle to an
// empty ledger. UPSTREAM_CREATE drops one candidate.
package engine
