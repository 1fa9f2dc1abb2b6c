package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/config"
	"github.com/roach88/lifesync/internal/lifelog"
	"github.com/roach88/lifesync/internal/summarize"
)

// SummarizeOptions holds flags for the summarize command.
type SummarizeOptions struct {
	*RootOptions
	Limit     int
	Date      string
	Direction string
	NoStream  bool
}

// SummaryResult is the JSON payload of the summarize command.
type SummaryResult struct {
	Lifelogs int    `json:"lifelogs"`
	Summary  string `json:"summary"`
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummarizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize recent lifelogs with a chat model",
		Long: `Fetch lifelogs and ask an OpenAI-compatible chat completions endpoint
to summarize them. The answer is streamed as it is generated unless
--no-stream is set or the output format is json.

Requires LIMITLESS_API_KEY and OPENAI_API_KEY.

Examples:
  lifesync summarize
  lifesync summarize --date 2026-10-18 --limit 20
  lifesync summarize --no-stream`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(opts, cmd)
		},
	}

	// Keep the prompt inside the model's context window.
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "number of lifelogs to summarize")
	cmd.Flags().StringVar(&opts.Date, "date", "", "only lifelogs from this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Direction, "direction", string(lifelog.Ascending), "sort order (asc|desc)")
	cmd.Flags().BoolVar(&opts.NoStream, "no-stream", false, "wait for the complete answer instead of streaming")

	return cmd
}

func runSummarize(opts *SummarizeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if err := requireKeys(cfg, config.KeyLimitlessAPIKey, config.KeyOpenAIAPIKey); err != nil {
		return err
	}

	q, err := lifelogQuery(cfg, opts.Limit, opts.Date, opts.Direction, "")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	logs, err := newLifelogClient(cfg).Fetch(ctx, q)
	if err != nil {
		return upstreamExit("summarize failed", err)
	}

	w := cmd.OutOrStdout()
	formatter := &OutputFormatter{Format: opts.Format, Writer: w, Verbose: opts.Verbose}
	if len(logs) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(SummaryResult{})
		}
		fmt.Fprintln(w, "No lifelogs fetched.")
		return nil
	}

	client := summarize.NewClient(cfg.OpenAIAPIKey,
		summarize.WithBaseURL(cfg.OpenAIAPIURL),
		summarize.WithModel(cfg.OpenAIModel),
	)

	if formatter.IsJSON() || opts.NoStream {
		summary, err := client.Summarize(ctx, logs)
		if err != nil {
			return upstreamExit("summarize failed", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(SummaryResult{Lifelogs: len(logs), Summary: summary})
		}
		fmt.Fprintln(w, summary)
		return nil
	}

	if err := client.Stream(ctx, logs, w); err != nil {
		return upstreamExit("summarize failed", err)
	}
	fmt.Fprintln(w)
	return nil
}
