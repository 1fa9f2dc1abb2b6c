package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long: `Resolve configuration from defaults, .env files, the --config file and
the environment, validate it, and print the result. Credentials are masked.

Exit codes:
  0 - Configuration is valid
  2 - Configuration failed to load or validate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if formatter.IsJSON() {
				return formatter.Success(redacted)
			}
			writeConfig(cmd.OutOrStdout(), &redacted)
			return nil
		},
	}

	return cmd
}

func writeConfig(w io.Writer, c *config.Config) {
	rows := []struct {
		key   string
		value any
	}{
		{config.KeyLimitlessAPIKey, c.LimitlessAPIKey},
		{config.KeyLimitlessAPIURL, c.LimitlessAPIURL},
		{config.KeyTodoistAPIToken, c.TodoistAPIToken},
		{config.KeyTodoistAPIURL, c.TodoistAPIURL},
		{config.KeyTodoistParentID, c.TodoistParentID},
		{config.KeyTodoistRate, c.TodoistRate},
		{config.KeyOpenAIAPIKey, c.OpenAIAPIKey},
		{config.KeyOpenAIAPIURL, c.OpenAIAPIURL},
		{config.KeyOpenAIModel, c.OpenAIModel},
		{config.KeyPollInterval, c.PollInterval},
		{config.KeyPollLimit, c.PollLimit},
		{config.KeyBatchSize, c.BatchSize},
		{config.KeyTimezone, c.Timezone},
		{config.KeyIncludeCompleted, c.IncludeCompleted},
		{config.KeyJournal, c.Journal},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-18s %v\n", r.key, r.value)
	}
}
