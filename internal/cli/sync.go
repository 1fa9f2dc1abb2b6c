package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/engine"
	"github.com/roach88/lifesync/internal/model"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Limit            int
	IncludeCompleted bool
	Journal          string

	// CycleIDs overrides the cycle id generator (for testing).
	CycleIDs engine.CycleIDGenerator
}

// SyncResult is the JSON payload of the sync command.
type SyncResult struct {
	Fetched bool               `json:"fetched"`
	Report  *model.CycleReport `json:"report,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return newSyncCommand(&SyncOptions{RootOptions: rootOpts})
}

func newSyncCommand(opts *SyncOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization cycle",
		Long: `Fetch the most recent lifelogs, extract task phrases and create the
missing Todoist sub-tasks. Runs a single cycle and exits.

Requires LIMITLESS_API_KEY, TODOIST_API_TOKEN and TODOIST_PARENT_ID.

Exit codes:
  0 - Cycle completed (individual task failures are reported, not fatal)
  1 - Lifelogs could not be fetched
  2 - Configuration error

Examples:
  lifesync sync
  lifesync sync --limit 25 --include-completed
  lifesync sync --journal ./lifesync.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "number of recent lifelogs to scan (default: poll_limit)")
	cmd.Flags().BoolVar(&opts.IncludeCompleted, "include-completed", false, "list completed sub-tasks too, re-creating completed duplicates")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the cycle in this SQLite journal")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if err := requireKeys(cfg, syncKeys...); err != nil {
		return err
	}

	var extra []engine.Option
	if opts.CycleIDs != nil {
		extra = append(extra, engine.WithCycleIDs(opts.CycleIDs))
	}
	p, err := newPipeline(cfg, pipelineSettings{
		Limit:            opts.Limit,
		IncludeCompleted: opts.IncludeCompleted,
		Journal:          opts.Journal,
	}, extra...)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Debug("sync starting", "limit", p.feed.Query.Limit)
	report, ok, err := engine.NewPoller(p.feed, p.sync).RunOnce(ctx)
	if err != nil {
		return upstreamExit("sync failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if !ok {
		if formatter.IsJSON() {
			return formatter.Success(SyncResult{})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No lifelogs fetched.")
		return nil
	}

	if formatter.IsJSON() {
		return formatter.Success(SyncResult{Fetched: true, Report: &report})
	}
	return formatter.Report(report)
}
