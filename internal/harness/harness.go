package harness

import (
	"context"
	"fmt"

	"github.com/roach88/lifesync/internal/engine"
	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Every scenario gets a fresh fake task service and synchronizer. An error
// is returned only if the scenario cannot be executed at all; failed
// expectations are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	seed := make([]model.Task, 0, len(scenario.Tasks))
	for _, t := range scenario.Tasks {
		seed = append(seed, model.Task{ID: t.ID, Text: t.Text, Completed: t.Completed})
	}
	svc := testutil.NewFakeTaskService(seed...)
	svc.FailList(scenario.FailList)
	for _, text := range scenario.FailCreate {
		svc.FailCreate(text)
	}

	opts := []engine.Option{engine.WithCycleIDs(testutil.NewSequentialIDs("cycle"))}
	if scenario.Options.SentenceTracking {
		opts = append(opts, engine.WithSentenceTracking())
	}
	if scenario.Options.IncludeCompleted {
		opts = append(opts, engine.WithCompletedTasks())
	}
	sync := engine.NewSynchronizer(svc, opts...)

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Cycles {
		n := i + 1
		before := len(svc.Calls())

		transcripts := make([]model.Transcript, 0, len(step.Transcripts))
		for _, tr := range step.Transcripts {
			transcripts = append(transcripts, model.Transcript{ID: tr.ID, Body: tr.Body})
		}
		report := sync.RunCycle(ctx, transcripts)
		result.Reports = append(result.Reports, report)

		for _, call := range svc.Calls()[before:] {
			result.Trace = append(result.Trace, TraceEvent{
				Cycle:          n,
				Op:             call.Op,
				Text:           call.Text,
				IncompleteOnly: call.IncompleteOnly,
			})
		}

		if step.Expect != nil {
			for _, msg := range checkExpect(n, step.Expect, report) {
				result.AddError(msg)
			}
		}

		for _, text := range step.Complete {
			svc.Complete(text)
		}
	}

	result.Tasks = svc.Tasks()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// checkExpect compares the counts given in e against r.
func checkExpect(cycle int, e *CycleExpect, r model.CycleReport) []string {
	var errs []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			errs = append(errs, fmt.Sprintf("cycle %d: %s = %d, expected %d", cycle, name, got, *want))
		}
	}

	check("matched", e.Matched, r.Matched)
	check("extracted", e.Extracted, r.Extracted)
	check("added", e.Added, r.Added)
	check("skipped", e.Skipped, r.Skipped)
	check("failed", e.Failed, r.Failed)
	check("seen", e.Seen, r.Seen)
	check("unparseable", e.Unparseable, r.Unparseable)

	if e.Degraded != nil && *e.Degraded != r.LedgerDegraded {
		errs = append(errs, fmt.Sprintf("cycle %d: ledger_degraded = %t, expected %t", cycle, r.LedgerDegraded, *e.Degraded))
	}
	return errs
}
