package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/config"
	"github.com/roach88/lifesync/internal/lifelog"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Limit     int
	Date      string
	Direction string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [timezone]",
		Short: "Print lifelogs as markdown",
		Long: `Fetch the most recent lifelogs and print each markdown body followed by
a blank line.

The optional argument is an IANA timezone name. Without it the configured
timezone is used, then the local one.

Examples:
  lifesync export
  lifesync export America/Los_Angeles --limit 5
  lifesync export --date 2026-10-18 --direction asc`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tz := ""
			if len(args) == 1 {
				tz = args[0]
			}
			return runExport(opts, tz, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 1, "number of lifelogs to export")
	cmd.Flags().StringVar(&opts.Date, "date", "", "only lifelogs from this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Direction, "direction", string(lifelog.Descending), "sort order (asc|desc)")

	return cmd
}

// parseDirection validates a --direction value.
func parseDirection(s string) (lifelog.Direction, error) {
	switch d := lifelog.Direction(s); d {
	case lifelog.Ascending, lifelog.Descending:
		return d, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("invalid direction %q: must be asc or desc", s))
}

// lifelogQuery builds the query shared by export and summarize.
func lifelogQuery(cfg *config.Config, limit int, date, direction, tz string) (lifelog.Query, error) {
	if limit <= 0 {
		return lifelog.Query{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --limit %d: must be > 0", limit))
	}
	dir, err := parseDirection(direction)
	if err != nil {
		return lifelog.Query{}, err
	}

	q := lifelog.DefaultQuery()
	q.Limit = limit
	q.BatchSize = cfg.BatchSize
	q.Direction = dir
	q.Date = date
	q.Timezone = cfg.Timezone
	if tz != "" {
		q.Timezone = tz
	}
	return q, nil
}

func runExport(opts *ExportOptions, tz string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if err := requireKeys(cfg, config.KeyLimitlessAPIKey); err != nil {
		return err
	}

	q, err := lifelogQuery(cfg, opts.Limit, opts.Date, opts.Direction, tz)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	logs, err := newLifelogClient(cfg).Fetch(ctx, q)
	if err != nil {
		return upstreamExit("export failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if formatter.IsJSON() {
		if logs == nil {
			logs = []lifelog.Lifelog{}
		}
		return formatter.Success(logs)
	}
	return lifelog.WriteMarkdown(cmd.OutOrStdout(), logs)
}
