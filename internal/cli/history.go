package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
	Cycle   string
	Task    string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled sync cycles",
		Long: `Read the run journal written by sync and watch.

Without flags, lists the most recent cycles. --cycle shows one cycle with
every candidate decision. --task shows every decision made for a task
text, matched the same way duplicates are (case-insensitive, trimmed).

The journal is a record for operators only; it never affects which tasks
are created.

Examples:
  lifesync history --journal ./lifesync.db
  lifesync history --journal ./lifesync.db --cycle 0192a3b4-...
  lifesync history --journal ./lifesync.db --task "buy milk"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (default: journal config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of cycles to list (0 = all)")
	cmd.Flags().StringVar(&opts.Cycle, "cycle", "", "show one cycle by id")
	cmd.Flags().StringVar(&opts.Task, "task", "", "show the history of one task text")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Cycle != "" && opts.Task != "" {
		return NewExitError(ExitCommandError, "--cycle and --task are mutually exclusive")
	}

	path := opts.Journal
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		path = cfg.Journal
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no journal configured (use --journal or JOURNAL)")
	}
	// Open would create an empty journal; reading one that was never
	// written is a usage error.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	formatter := &OutputFormatter{Format: opts.Format, Writer: w, Verbose: opts.Verbose}

	switch {
	case opts.Cycle != "":
		entry, err := st.ReadCycle(ctx, opts.Cycle)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("cycle not found: %s", opts.Cycle))
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read cycle", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(entry)
		}
		fmt.Fprintf(w, "Recorded %s\n", entry.RecordedAt.Format(time.RFC3339))
		return formatter.Report(entry.Report)

	case opts.Task != "":
		key := model.NormalizeKey(opts.Task)
		events, err := st.TaskHistory(ctx, key)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read task history", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(events)
		}
		writeTaskHistory(w, key, events)
		return nil

	default:
		entries, err := st.ListCycles(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list cycles", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(entries)
		}
		writeCycleList(w, entries)
		return nil
	}
}

func writeCycleList(w io.Writer, entries []store.CycleEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cycles recorded.")
		return
	}
	for _, e := range entries {
		r := e.Report
		flags := ""
		if r.LedgerDegraded {
			flags += " degraded"
		}
		if r.Interrupted {
			flags += " interrupted"
		}
		fmt.Fprintf(w, "%s  %s  added=%d skipped=%d failed=%d transcripts=%d%s\n",
			e.RecordedAt.Format(time.RFC3339), r.CycleID, r.Added, r.Skipped, r.Failed, r.Transcripts, flags)
	}
}

func writeTaskHistory(w io.Writer, key string, events []store.TaskEvent) {
	if len(events) == 0 {
		fmt.Fprintf(w, "No history for %q.\n", key)
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s  %s  ", ev.RecordedAt.Format(time.RFC3339), ev.CycleID)
		writeOutcome(w, ev.Outcome)
	}
}
