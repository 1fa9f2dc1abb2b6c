package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/engine"
	"github.com/roach88/lifesync/internal/model"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval         time.Duration
	Limit            int
	Cycles           int
	IncludeCompleted bool
	Journal          string

	// CycleIDs overrides the cycle id generator (for testing).
	CycleIDs engine.CycleIDGenerator
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newWatchCommand(&WatchOptions{RootOptions: rootOpts})
}

func newWatchCommand(opts *WatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll lifelogs and sync tasks continuously",
		Long: `Repeat the sync cycle on a fixed interval until interrupted.

Sentences already handled in this process are not looked at again, so a
phrase that stays in the recent window is only acted on once. The set is
kept in memory and starts empty on every launch.

A lifelog fetch failure stops the loop with exit code 1. Ctrl-C stops it
cleanly with exit code 0.

Examples:
  lifesync watch
  lifesync watch --interval 30s --limit 5
  lifesync watch --cycles 10 --journal ./lifesync.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "pause between cycles (default: poll_interval)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "number of recent lifelogs per cycle (default: poll_limit)")
	cmd.Flags().IntVar(&opts.Cycles, "cycles", 0, "stop after this many cycles (0 = run until interrupted)")
	cmd.Flags().BoolVar(&opts.IncludeCompleted, "include-completed", false, "list completed sub-tasks too, re-creating completed duplicates")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record every cycle in this SQLite journal")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if err := requireKeys(cfg, syncKeys...); err != nil {
		return err
	}
	if opts.Cycles < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --cycles %d: must be >= 0", opts.Cycles))
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.PollInterval
	}

	extra := []engine.Option{engine.WithSentenceTracking()}
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

	w := cmd.OutOrStdout()
	formatter := &OutputFormatter{Format: opts.Format, Writer: w, ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	poller := engine.NewPoller(p.feed, p.sync,
		engine.WithInterval(interval),
		engine.WithMaxCycles(opts.Cycles),
		engine.WithReportHandler(func(r model.CycleReport) {
			if err := formatter.Report(r); err != nil {
				slog.Error("failed to write report", "error", err)
			}
		}),
	)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if !formatter.IsJSON() {
		fmt.Fprintf(w, "Watching lifelogs every %s. Press Ctrl-C to stop.\n", interval)
	}

	runErr := poller.Run(ctx)

	if err := formatter.Totals(poller.Totals()); err != nil {
		return err
	}

	if err := upstreamExit("watch stopped", runErr); err != nil {
		return err
	}
	slog.Info("watch stopped gracefully")
	return nil
}
