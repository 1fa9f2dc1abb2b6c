package model

// Action is what the engine did with one extracted candidate.
type Action string

const (
	// ActionCreated means no equivalent task existed and one was created.
	ActionCreated Action = "created"

	// ActionRecreated means the equivalent task was completed, so a fresh
	// one was created.
	ActionRecreated Action = "recreated"

	// ActionSkipped means an equivalent active task already existed.
	ActionSkipped Action = "skipped"

	// ActionFailed means the task service rejected the creation.
	ActionFailed Action = "failed"
)

// Outcome records the decision for one candidate.
type Outcome struct {
	TranscriptID string `json:"transcript_id"`
	Sentence     string `json:"sentence"`
	Text         string `json:"text"`
	Key          string `json:"key"`
	Action       Action `json:"action"`
	TaskID       string `json:"task_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CycleReport summarizes one synchronization cycle.
type CycleReport struct {
	CycleID string `json:"cycle_id"`
	Seq     int64  `json:"seq"`

	// Transcripts is the number of transcripts handed to the cycle.
	Transcripts int `json:"transcripts"`

	// Matched counts transcripts that passed the substring pre-filter.
	Matched int `json:"matched"`

	// Extracted counts candidates produced by the extractor.
	Extracted int `json:"extracted"`

	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	// Seen counts candidates dropped because their sentence was already
	// processed earlier in this process (continuous mode only).
	Seen int `json:"seen"`

	// Unparseable counts matched transcripts where no sentence fit the
	// task phrase.
	Unparseable int `json:"unparseable"`

	// LedgerSize is the number of known tasks after the refresh.
	LedgerSize int `json:"ledger_size"`

	// LedgerDegraded is set when the task listing failed and the cycle ran
	// against an empty ledger.
	LedgerDegraded bool `json:"ledger_degraded,omitempty"`

	// Interrupted is set when the context was cancelled mid-cycle.
	Interrupted bool `json:"interrupted,omitempty"`

	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// Totals accumulates reports across cycles.
type Totals struct {
	Cycles      int `json:"cycles"`
	Transcripts int `json:"transcripts"`
	Matched     int `json:"matched"`
	Extracted   int `json:"extracted"`
	Added       int `json:"added"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
	Seen        int `json:"seen"`
	Unparseable int `json:"unparseable"`
}

// Add folds r into the totals.
func (t *Totals) Add(r CycleReport) {
	t.Cycles++
	t.Transcripts += r.Transcripts
	t.Matched += r.Matched
	t.Extracted += r.Extracted
	t.Added += r.Added
	t.Skipped += r.Skipped
	t.Failed += r.Failed
	t.Seen += r.Seen
	t.Unparseable += r.Unparseable
}
