package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/lifesync/internal/config"
	"github.com/roach88/lifesync/internal/engine"
	"github.com/roach88/lifesync/internal/lifelog"
	"github.com/roach88/lifesync/internal/store"
	"github.com/roach88/lifesync/internal/todoist"
)

// syncKeys are the credentials a synchronization run cannot start without.
var syncKeys = []string{
	config.KeyLimitlessAPIKey,
	config.KeyTodoistAPIToken,
	config.KeyTodoistParentID,
}

// loadConfig resolves configuration from the root flags. Any load or
// validation failure is a command error.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.Options{Dir: opts.EnvDir, File: opts.ConfigFile})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// requireKeys fails with a command error naming every missing credential.
// Called before any network activity.
func requireKeys(cfg *config.Config, keys ...string) error {
	if err := cfg.Require(keys...); err != nil {
		return WrapExitError(ExitCommandError, "configuration incomplete", err)
	}
	return nil
}

func newLifelogClient(cfg *config.Config) *lifelog.Client {
	return lifelog.NewClient(cfg.LimitlessAPIKey, lifelog.WithBaseURL(cfg.LimitlessAPIURL))
}

func newTaskService(cfg *config.Config) *todoist.Subtasks {
	client := todoist.NewClient(cfg.TodoistAPIToken,
		todoist.WithBaseURL(cfg.TodoistAPIURL),
		todoist.WithRate(cfg.TodoistRate),
	)
	return todoist.NewSubtasks(client, cfg.TodoistParentID)
}

// recentQuery selects the n most recent lifelogs in the configured zone.
func recentQuery(cfg *config.Config, n int) lifelog.Query {
	q := lifelog.Recent(n)
	q.BatchSize = cfg.BatchSize
	q.Timezone = cfg.Timezone
	return q
}

// pipeline is the wiring shared by sync and watch.
type pipeline struct {
	feed    lifelog.Feed
	sync    *engine.Synchronizer
	journal *store.Store
}

// pipelineSettings are the per-command overrides of the configuration.
type pipelineSettings struct {
	Limit            int
	IncludeCompleted bool
	Journal          string
}

// newPipeline wires the lifelog feed, the task service and the optional
// journal into a synchronizer.
func newPipeline(cfg *config.Config, s pipelineSettings, extra ...engine.Option) (*pipeline, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = cfg.PollLimit
	}

	opts := append([]engine.Option{}, extra...)
	if s.IncludeCompleted || cfg.IncludeCompleted {
		opts = append(opts, engine.WithCompletedTasks())
	}

	p := &pipeline{
		feed: lifelog.Feed{Client: newLifelogClient(cfg), Query: recentQuery(cfg, limit)},
	}

	journalPath := s.Journal
	if journalPath == "" {
		journalPath = cfg.Journal
	}
	if journalPath != "" {
		st, err := store.Open(journalPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		slog.Debug("journal open", "path", journalPath)
		p.journal = st
		opts = append(opts, engine.WithJournal(st))
	}

	p.sync = engine.NewSynchronizer(newTaskService(cfg), opts...)
	return p, nil
}

// Close releases the journal, if any.
func (p *pipeline) Close() {
	if p.journal == nil {
		return
	}
	if err := p.journal.Close(); err != nil {
		slog.Error("error closing journal", "error", err)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// upstreamExit maps an error from a fetch or cycle onto an exit error.
// Cancellation is a clean shutdown and maps to nil.
func upstreamExit(message string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return WrapExitError(ExitFailure, message, err)
}
