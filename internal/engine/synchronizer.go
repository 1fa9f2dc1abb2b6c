package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/lifesync/internal/extract"
	"github.com/roach88/lifesync/internal/model"
)

// TaskService is the external task list, bound to one parent task.
// Implemented by todoist.Subtasks (production) and testutil.FakeTaskService.
type TaskService interface {
	// ListTasks returns the parent's sub-tasks, only the incomplete ones
	// when incompleteOnly is set.
	ListTasks(ctx context.Context, incompleteOnly bool) ([]model.Task, error)

	// CreateTask adds a sub-task with the given text.
	CreateTask(ctx context.Context, text string) (model.Task, error)
}

// Journal receives every finished cycle report. Journals are write-only
// from the engine's point of view; nothing recorded is read back for
// deduplication.
type Journal interface {
	RecordCycle(ctx context.Context, report model.CycleReport) error
}

// Synchronizer reconciles transcripts against the task service.
//
// One cycle: refresh the ledger, pre-filter each transcript, extract
// candidates, and for each candidate create the task, re-create it, or
// skip it. Everything runs sequentially in the caller's goroutine.
type Synchronizer struct {
	tasks     TaskService
	ledger    *Ledger
	sentences *ProcessedSentences // nil unless sentence tracking is on
	journal   Journal
	clock     *Clock
	ids       CycleIDGenerator
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSentenceTracking enables the processed-sentence set used by the
// continuous mode.
func WithSentenceTracking() Option {
	return func(s *Synchronizer) {
		s.sentences = NewProcessedSentences()
	}
}

// WithCompletedTasks builds the ledger from the unfiltered listing so that
// completed tasks are re-created when mentioned again.
func WithCompletedTasks() Option {
	return func(s *Synchronizer) {
		s.ledger = NewLedger(s.tasks, true)
	}
}

// WithJournal records every cycle report to j.
func WithJournal(j Journal) Option {
	return func(s *Synchronizer) {
		s.journal = j
	}
}

// WithCycleIDs overrides the cycle id generator (default UUIDv7).
func WithCycleIDs(g CycleIDGenerator) Option {
	return func(s *Synchronizer) {
		s.ids = g
	}
}

// NewSynchronizer creates a Synchronizer reconciling against tasks.
func NewSynchronizer(tasks TaskService, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		tasks:  tasks,
		ledger: NewLedger(tasks, false),
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the ledger for inspection.
func (s *Synchronizer) Ledger() *Ledger {
	return s.ledger
}

// Sentences exposes the processed-sentence set, or nil when sentence
// tracking is off.
func (s *Synchronizer) Sentences() *ProcessedSentences {
	return s.sentences
}

// RunCycle runs one synchronization cycle over transcripts, in the order
// given.
//
// ERROR HANDLING: a listing failure degrades the cycle to an empty ledger
// and a creation failure drops only that candidate. Neither aborts the
// cycle, so RunCycle reports rather than returns errors. If ctx is
// cancelled the remaining candidates are not examined and the report is
// marked interrupted; tasks already created stay created. The journal
// still receives an interrupted report.
func (s *Synchronizer) RunCycle(ctx context.Context, transcripts []model.Transcript) model.CycleReport {
	r := model.CycleReport{
		CycleID:     s.ids.Generate(),
		Seq:         s.clock.Next(),
		Transcripts: len(transcripts),
	}
	log := slog.With("cycle", r.CycleID, "seq", r.Seq)
	log.Debug("cycle starting", "transcripts", len(transcripts))

	if err := s.ledger.Refresh(ctx); err != nil {
		r.LedgerDegraded = true
		log.Warn("task listing failed, continuing with empty ledger", "error", err)
	}
	r.LedgerSize = s.ledger.Len()

	if s.sentences != nil && len(transcripts) > 0 {
		s.sentences.Retain(transcriptIDs(transcripts))
		log.Debug("sentence history pruned", "tracked_transcripts", s.sentences.Size())
	}

scan:
	for _, tr := range transcripts {
		if ctx.Err() != nil {
			r.Interrupted = true
			break
		}
		if !extract.MightContainTask(tr.Body) {
			continue
		}

		r.Matched++
		log.Debug("transcript may contain task additions", "transcript", tr.ID)

		found := 0
		for c := range extract.Tasks(tr.Body) {
			if ctx.Err() != nil {
				r.Interrupted = true
				break scan
			}
			found++
			r.Extracted++
			s.reconcile(ctx, log, tr.ID, c, &r)
		}
		if found == 0 {
			r.Unparseable++
		}
	}
	if r.Interrupted {
		log.Warn("cycle interrupted", "error", ctx.Err())
	}

	if s.journal != nil {
		// Interrupted cycles are journaled too.
		if err := s.journal.RecordCycle(context.WithoutCancel(ctx), r); err != nil {
			log.Warn("failed to journal cycle", "error", err)
		}
	}

	log.Info("cycle complete",
		"transcripts", r.Transcripts,
		"matched", r.Matched,
		"added", r.Added,
		"skipped", r.Skipped,
		"failed", r.Failed,
	)
	return r
}

// reconcile decides what to do with one candidate and applies it.
func (s *Synchronizer) reconcile(ctx context.Context, log *slog.Logger, transcriptID string, c extract.Candidate, r *model.CycleReport) {
	if s.sentences != nil && s.sentences.Seen(transcriptID, c.Sentence) {
		r.Seen++
		return
	}

	out := model.Outcome{
		TranscriptID: transcriptID,
		Sentence:     c.Sentence,
		Text:         c.Text,
		Key:          c.Key,
	}
	log = log.With("transcript", transcriptID, "task", c.Text)

	existing, found := s.ledger.Lookup(c.Key)
	if found && !existing.Completed {
		log.Debug("task already exists, skipping", "task_id", existing.ID, "existing", existing.Text)
		out.Action = model.ActionSkipped
		out.TaskID = existing.ID
		r.Skipped++
		r.Outcomes = append(r.Outcomes, out)
		s.markProcessed(transcriptID, c.Sentence)
		return
	}

	out.Action = model.ActionCreated
	if found {
		log.Debug("equivalent task was completed, creating a new one", "task_id", existing.ID)
		out.Action = model.ActionRecreated
	}

	created, err := s.tasks.CreateTask(ctx, c.Text)
	if err != nil {
		// Not marked processed: the next poll tries this sentence again.
		uerr := NewCreateError(c.Text, err)
		log.Error("failed to create task", "error", uerr)
		out.Action = model.ActionFailed
		out.Error = uerr.Error()
		r.Failed++
		r.Outcomes = append(r.Outcomes, out)
		return
	}

	if created.Text == "" {
		created.Text = c.Text
	}
	s.ledger.Remember(c.Key, created)
	log.Info("task added", "task_id", created.ID)

	out.TaskID = created.ID
	r.Added++
	r.Outcomes = append(r.Outcomes, out)
	s.markProcessed(transcriptID, c.Sentence)
}

func transcriptIDs(transcripts []model.Transcript) []string {
	ids := make([]string, len(transcripts))
	for i, tr := range transcripts {
		ids[i] = tr.ID
	}
	return ids
}

func (s *Synchronizer) markProcessed(transcriptID, sentence string) {
	if s.sentences != nil {
		s.sentences.Mark(transcriptID, sentence)
	}
}
