package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a synchronization scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Options Options `yaml:"options,omitempty"`

	// Tasks seeds the task service before the first cycle.
	Tasks []TaskSeed `yaml:"tasks,omitempty"`

	// FailList makes every task listing fail.
	FailList bool `yaml:"fail_list,omitempty"`

	// FailCreate lists texts whose creation fails.
	FailCreate []string `yaml:"fail_create,omitempty"`

	// Cycles run in order against the same synchronizer.
	Cycles []CycleStep `yaml:"cycles"`

	// Assertions validate the trace and the final task list.
	Assertions []Assertion `yaml:"assertions"`
}

// Options mirror the synchronizer options.
type Options struct {
	SentenceTracking bool `yaml:"sentence_tracking,omitempty"`
	IncludeCompleted bool `yaml:"include_completed,omitempty"`
}

// TaskSeed is a task present before the scenario starts.
type TaskSeed struct {
	ID        string `yaml:"id,omitempty"`
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed,omitempty"`
}

// TranscriptSeed is one transcript handed to a cycle.
type TranscriptSeed struct {
	ID   string `yaml:"id"`
	Body string `yaml:"body"`
}

// CycleStep is one synchronization cycle.
type CycleStep struct {
	Transcripts []TranscriptSeed `yaml:"transcripts"`

	// Expect checks the cycle report. Only the given counts are compared.
	Expect *CycleExpect `yaml:"expect,omitempty"`

	// Complete marks tasks with these texts completed after the cycle,
	// as a user would between polls.
	Complete []string `yaml:"complete,omitempty"`
}

// CycleExpect holds expected report counts.
type CycleExpect struct {
	Matched     *int  `yaml:"matched,omitempty"`
	Extracted   *int  `yaml:"extracted,omitempty"`
	Added       *int  `yaml:"added,omitempty"`
	Skipped     *int  `yaml:"skipped,omitempty"`
	Failed      *int  `yaml:"failed,omitempty"`
	Seen        *int  `yaml:"seen,omitempty"`
	Unparseable *int  `yaml:"unparseable,omitempty"`
	Degraded    *bool `yaml:"degraded,omitempty"`
}

// Assertion validates the trace or the final task list.
type Assertion struct {
	// Type is one of created, create_count, outcome, final_tasks.
	Type string `yaml:"type"`

	// Texts is the expected list (created, final_tasks).
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number of creation attempts (create_count).
	Count int `yaml:"count,omitempty"`

	// Cycle is 1-based (outcome).
	Cycle int `yaml:"cycle,omitempty"`

	// Text and Action identify the expected outcome (outcome).
	Text   string `yaml:"text,omitempty"`
	Action string `yaml:"action,omitempty"`
}

// Assertion type constants.
const (
	AssertCreated     = "created"
	AssertCreateCount = "create_count"
	AssertOutcome     = "outcome"
	AssertFinalTasks  = "final_tasks"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cycles) == 0 {
		return fmt.Errorf("cycles list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, task := range s.Tasks {
		if task.Text == "" {
			return fmt.Errorf("tasks[%d]: text is required", i)
		}
	}

	for i, cycle := range s.Cycles {
		for j, tr := range cycle.Transcripts {
			if tr.ID == "" {
				return fmt.Errorf("cycles[%d].transcripts[%d]: id is required", i, j)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Cycles)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, cycles int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCreated, AssertFinalTasks:
		// An empty texts list is a valid expectation.
	case AssertCreateCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for create_count", index)
		}
	case AssertOutcome:
		if a.Cycle < 1 || a.Cycle > cycles {
			return fmt.Errorf("assertions[%d]: cycle must be between 1 and %d for outcome", index, cycles)
		}
		if a.Text == "" || a.Action == "" {
			return fmt.Errorf("assertions[%d]: text and action are required for outcome", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
