package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/lifesync/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		if event.Op == "create" {
			fmt.Fprintf(&buf, "  [%d] cycle %d create %q\n", i+1, event.Cycle, event.Text)
		} else {
			fmt.Fprintf(&buf, "  [%d] cycle %d %s\n", i+1, event.Cycle, event.Op)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertCreated:
		return assertCreated(result.Trace, a)
	case AssertCreateCount:
		return assertCreateCount(result.Trace, a)
	case AssertOutcome:
		return assertOutcome(result, a)
	case AssertFinalTasks:
		return assertFinalTasks(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func createdTexts(trace []TraceEvent) []string {
	texts := []string{}
	for _, ev := range trace {
		if ev.Op == "create" {
			texts = append(texts, ev.Text)
		}
	}
	return texts
}

// assertCreated checks the exact ordered list of creation attempts.
func assertCreated(trace []TraceEvent, a Assertion) error {
	got := createdTexts(trace)
	want := a.Texts
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCreated,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    trace,
	}
}

// assertCreateCount checks the number of creation attempts.
func assertCreateCount(trace []TraceEvent, a Assertion) error {
	got := len(createdTexts(trace))
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCreateCount,
		Expected: fmt.Sprintf("%d creations", a.Count),
		Actual:   fmt.Sprintf("%d creations", got),
		Trace:    trace,
	}
}

// assertOutcome checks that a cycle produced an outcome for text with the
// given action.
func assertOutcome(result *Result, a Assertion) error {
	if a.Cycle < 1 || a.Cycle > len(result.Reports) {
		return fmt.Errorf("cycle %d out of range (ran %d)", a.Cycle, len(result.Reports))
	}

	var seen []string
	for _, o := range result.Reports[a.Cycle-1].Outcomes {
		if o.Text == a.Text && string(o.Action) == a.Action {
			return nil
		}
		seen = append(seen, fmt.Sprintf("%s %q", o.Action, o.Text))
	}
	return &AssertionError{
		Type:     AssertOutcome,
		Expected: fmt.Sprintf("cycle %d: %s %q", a.Cycle, a.Action, a.Text),
		Actual:   fmt.Sprintf("outcomes %v", seen),
		Trace:    result.Trace,
	}
}

// assertFinalTasks checks the ordered list of active tasks at the end.
func assertFinalTasks(result *Result, a Assertion) error {
	got := activeTexts(result.Tasks)
	want := a.Texts
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalTasks,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    result.Trace,
	}
}

func activeTexts(tasks []model.Task) []string {
	texts := []string{}
	for _, t := range tasks {
		if !t.Completed {
			texts = append(texts, t.Text)
		}
	}
	return texts
}
