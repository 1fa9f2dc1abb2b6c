package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/lifesync/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution, including shutdown by signal
	ExitFailure      = 1 // Upstream failure (lifelog fetch failed, scenarios failed)
	ExitCommandError = 2 // Command error (missing credentials, bad flags, journal not found)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "UPSTREAM_FETCH", "CONFIG_MISSING", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether the formatter writes JSON.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Report outputs one cycle report. JSON output is one response per line so
// the poll loop can stream reports.
func (f *OutputFormatter) Report(r model.CycleReport) error {
	if f.IsJSON() {
		return f.Success(r)
	}

	w := f.Writer
	fmt.Fprintf(w, "Cycle %d (%s): %d transcripts, %d matched, %d extracted\n",
		r.Seq, r.CycleID, r.Transcripts, r.Matched, r.Extracted)
	fmt.Fprintf(w, "  added: %d  skipped: %d  failed: %d  unparseable: %d",
		r.Added, r.Skipped, r.Failed, r.Unparseable)
	if r.Seen > 0 {
		fmt.Fprintf(w, "  seen: %d", r.Seen)
	}
	fmt.Fprintln(w)

	if r.LedgerDegraded {
		fmt.Fprintln(w, "  warning: task list unavailable, duplicates were not checked")
	}
	if r.Interrupted {
		fmt.Fprintln(w, "  warning: cycle interrupted")
	}

	for _, o := range r.Outcomes {
		fmt.Fprint(w, "  ")
		writeOutcome(w, o)
	}
	f.VerboseLog("cycle %s: ledger held %d tasks", r.CycleID, r.LedgerSize)
	return nil
}

// Totals outputs the counts accumulated by a poll loop.
func (f *OutputFormatter) Totals(t model.Totals) error {
	if f.IsJSON() {
		return f.Success(t)
	}
	fmt.Fprintf(f.Writer, "Totals: %d cycles, %d transcripts, %d extracted\n",
		t.Cycles, t.Transcripts, t.Extracted)
	fmt.Fprintf(f.Writer, "  added: %d  skipped: %d  failed: %d  unparseable: %d  seen: %d\n",
		t.Added, t.Skipped, t.Failed, t.Unparseable, t.Seen)
	return nil
}

// actionMarks prefix outcome lines in text output.
var actionMarks = map[model.Action]string{
	model.ActionCreated:   "+",
	model.ActionRecreated: "+",
	model.ActionSkipped:   "=",
	model.ActionFailed:    "!",
}

func writeOutcome(w io.Writer, o model.Outcome) {
	mark := actionMarks[o.Action]
	switch {
	case o.Error != "":
		fmt.Fprintf(w, "%s %s (%s: %s)\n", mark, o.Text, o.Action, o.Error)
	case o.TaskID != "":
		fmt.Fprintf(w, "%s %s (%s %s)\n", mark, o.Text, o.Action, o.TaskID)
	default:
		fmt.Fprintf(w, "%s %s (%s)\n", mark, o.Text, o.Action)
	}
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
