package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifesync/internal/model"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Cycle: 1, Op: "list", IncompleteOnly: true},
		{Cycle: 1, Op: "create", Text: "Buy milk"},
		{Cycle: 1, Op: "create", Text: "Call mom"},
	}
	r.Reports = []model.CycleReport{{
		CycleID: "cycle-1",
		Outcomes: []model.Outcome{
			{Text: "Buy milk", Action: model.ActionCreated},
			{Text: "Call mom", Action: model.ActionFailed},
		},
	}}
	r.Tasks = []model.Task{
		{ID: "task-1", Text: "Buy milk"},
		{ID: "old", Text: "Walk dog", Completed: true},
	}
	return r
}

func TestAssertCreated(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, evaluate(r, Assertion{Type: AssertCreated, Texts: []string{"Buy milk", "Call mom"}}))

	err := evaluate(r, Assertion{Type: AssertCreated, Texts: []string{"Call mom", "Buy milk"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: created")
	assert.Contains(t, err.Error(), `cycle 1 create "Buy milk"`)
}

func TestAssertCreated_EmptyList(t *testing.T) {
	r := NewResult()
	assert.NoError(t, evaluate(r, Assertion{Type: AssertCreated}))
}

func TestAssertCreateCount(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, evaluate(r, Assertion{Type: AssertCreateCount, Count: 2}))
	assert.Error(t, evaluate(r, Assertion{Type: AssertCreateCount, Count: 1}))
}

func TestAssertOutcome(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, evaluate(r, Assertion{Type: AssertOutcome, Cycle: 1, Text: "Call mom", Action: "failed"}))

	err := evaluate(r, Assertion{Type: AssertOutcome, Cycle: 1, Text: "Call mom", Action: "created"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed "Call mom"`)

	err = evaluate(r, Assertion{Type: AssertOutcome, Cycle: 3, Text: "x", Action: "created"})
	assert.ErrorContains(t, err, "out of range")
}

func TestAssertFinalTasks(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, evaluate(r, Assertion{Type: AssertFinalTasks, Texts: []string{"Buy milk"}}))
	assert.Error(t, evaluate(r, Assertion{Type: AssertFinalTasks, Texts: []string{"Buy milk", "Walk dog"}}))
}

func TestEvaluateAssertions_CollectsAll(t *testing.T) {
	r := sampleResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertCreateCount, Count: 2},
		{Type: AssertCreateCount, Count: 0},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 1")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
