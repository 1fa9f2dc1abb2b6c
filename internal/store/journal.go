package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/lifesync/internal/model"
)

// recorded_at is stored with fixed-width nanoseconds so it sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CycleEntry is one journaled cycle.
type CycleEntry struct {
	Report     model.CycleReport `json:"report"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// TaskEvent is one outcome for a task key, with the cycle it belongs to.
type TaskEvent struct {
	CycleID    string        `json:"cycle_id"`
	RecordedAt time.Time     `json:"recorded_at"`
	Outcome    model.Outcome `json:"outcome"`
}

// RecordCycle appends a cycle report and its outcomes in one transaction.
// Implements engine.Journal.
//
// Uses ON CONFLICT DO NOTHING for idempotency - recording the same cycle id
// twice keeps the first copy.
func (s *Store) RecordCycle(ctx context.Context, r model.CycleReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles
		(id, seq, recorded_at, transcripts, matched, extracted, added, skipped, failed,
		 seen, unparseable, ledger_size, ledger_degraded, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.CycleID,
		r.Seq,
		s.now().UTC().Format(timeFormat),
		r.Transcripts,
		r.Matched,
		r.Extracted,
		r.Added,
		r.Skipped,
		r.Failed,
		r.Seen,
		r.Unparseable,
		r.LedgerSize,
		r.LedgerDegraded,
		r.Interrupted,
	)
	if err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}

	for i, o := range r.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes
			(cycle_id, ordinal, transcript_id, sentence, text, key, action, task_id, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			r.CycleID,
			i,
			o.TranscriptID,
			o.Sentence,
			o.Text,
			o.Key,
			string(o.Action),
			o.TaskID,
			o.Error,
		)
		if err != nil {
			return fmt.Errorf("record outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	return nil
}

// ListCycles returns up to limit cycles, newest first, without outcomes.
// limit <= 0 returns every cycle.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ListCycles(ctx context.Context, limit int) ([]CycleEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, recorded_at, transcripts, matched, extracted, added, skipped, failed,
		       seen, unparseable, ledger_size, ledger_degraded, interrupted
		FROM cycles
		ORDER BY recorded_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	entries := []CycleEntry{}
	for rows.Next() {
		e, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return entries, nil
}

// ReadCycle returns one cycle with its outcomes in candidate order.
// Returns sql.ErrNoRows (wrapped) if the cycle is unknown.
func (s *Store) ReadCycle(ctx context.Context, id string) (CycleEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, recorded_at, transcripts, matched, extracted, added, skipped, failed,
		       seen, unparseable, ledger_size, ledger_degraded, interrupted
		FROM cycles
		WHERE id = ?
	`, id)
	e, err := scanCycle(row)
	if err != nil {
		return CycleEntry{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript_id, sentence, text, key, action, task_id, error
		FROM outcomes
		WHERE cycle_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return CycleEntry{}, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return CycleEntry{}, err
		}
		e.Report.Outcomes = append(e.Report.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return CycleEntry{}, fmt.Errorf("iterate outcomes: %w", err)
	}
	return e, nil
}

// TaskHistory returns every outcome recorded for a normalized task key,
// oldest first.
func (s *Store) TaskHistory(ctx context.Context, key string) ([]TaskEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.cycle_id, c.recorded_at,
		       o.transcript_id, o.sentence, o.text, o.key, o.action, o.task_id, o.error
		FROM outcomes o
		JOIN cycles c ON c.id = o.cycle_id
		WHERE o.key = ?
		ORDER BY c.recorded_at ASC, o.cycle_id COLLATE BINARY ASC, o.ordinal ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	events := []TaskEvent{}
	for rows.Next() {
		var (
			ev         TaskEvent
			recordedAt string
			action     string
		)
		o := &ev.Outcome
		if err := rows.Scan(&ev.CycleID, &recordedAt,
			&o.TranscriptID, &o.Sentence, &o.Text, &o.Key, &action, &o.TaskID, &o.Error); err != nil {
			return nil, fmt.Errorf("scan task history: %w", err)
		}
		o.Action = model.Action(action)
		if ev.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task history: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (CycleEntry, error) {
	var (
		e          CycleEntry
		recordedAt string
	)
	r := &e.Report
	err := row.Scan(&r.CycleID, &r.Seq, &recordedAt,
		&r.Transcripts, &r.Matched, &r.Extracted, &r.Added, &r.Skipped, &r.Failed,
		&r.Seen, &r.Unparseable, &r.LedgerSize, &r.LedgerDegraded, &r.Interrupted)
	if err == sql.ErrNoRows {
		return CycleEntry{}, fmt.Errorf("cycle not found: %w", err)
	}
	if err != nil {
		return CycleEntry{}, fmt.Errorf("scan cycle: %w", err)
	}

	if e.RecordedAt, err = parseTime(recordedAt); err != nil {
		return CycleEntry{}, err
	}
	return e, nil
}

func scanOutcome(row scanner) (model.Outcome, error) {
	var (
		o      model.Outcome
		action string
	)
	if err := row.Scan(&o.TranscriptID, &o.Sentence, &o.Text, &o.Key, &action, &o.TaskID, &o.Error); err != nil {
		return model.Outcome{}, fmt.Errorf("scan outcome: %w", err)
	}
	o.Action = model.Action(action)
	return o, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recorded_at %q: %w", s, err)
	}
	return t, nil
}
