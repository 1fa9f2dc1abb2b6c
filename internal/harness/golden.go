package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file view of a scenario run: the calls made
// to the task service and the decision for every candidate.
type TraceSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Trace        []TraceEvent      `json:"trace"`
	Outcomes     []OutcomeSnapshot `json:"outcomes"`
}

// OutcomeSnapshot is one candidate decision tagged with its cycle.
type OutcomeSnapshot struct {
	Cycle        int    `json:"cycle"`
	TranscriptID string `json:"transcript_id"`
	Text         string `json:"text"`
	Action       string `json:"action"`
	TaskID       string `json:"task_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Snapshot builds the golden view of result.
func Snapshot(name string, result *Result) TraceSnapshot {
	s := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Outcomes:     []OutcomeSnapshot{},
	}
	if s.Trace == nil {
		s.Trace = []TraceEvent{}
	}
	for i, r := range result.Reports {
		for _, o := range r.Outcomes {
			s.Outcomes = append(s.Outcomes, OutcomeSnapshot{
				Cycle:        i + 1,
				TranscriptID: o.TranscriptID,
				Text:         o.Text,
				Action:       string(o.Action),
				TaskID:       o.TaskID,
				Error:        o.Error,
			})
		}
	}
	return s
}

// MarshalSnapshot renders a snapshot as indented JSON with a trailing
// newline, the format stored in golden files.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(Snapshot(name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
