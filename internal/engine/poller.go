package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/lifesync/internal/model"
)

// DefaultPollInterval is the pause between cycles in continuous mode.
const DefaultPollInterval = 3 * time.Second

// TranscriptSource supplies the transcripts for one cycle.
// Implemented by lifelog.Feed (production) and testutil.FakeSource.
type TranscriptSource interface {
	Transcripts(ctx context.Context) ([]model.Transcript, error)
}

// Poller repeats fetch → cycle → sleep until its context is cancelled, a
// fetch fails, or the optional cycle cap is reached.
type Poller struct {
	source    TranscriptSource
	sync      *Synchronizer
	interval  time.Duration
	maxCycles int
	onReport  func(model.CycleReport)
	totals    model.Totals
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the pause between cycles.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithMaxCycles stops the loop after n fetches. 0 runs forever.
func WithMaxCycles(n int) PollerOption {
	return func(p *Poller) {
		p.maxCycles = n
	}
}

// WithReportHandler calls fn with every cycle report.
func WithReportHandler(fn func(model.CycleReport)) PollerOption {
	return func(p *Poller) {
		p.onReport = fn
	}
}

// NewPoller creates a Poller feeding source into sync.
func NewPoller(source TranscriptSource, sync *Synchronizer, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		sync:     sync,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Totals returns the counts accumulated over every cycle run so far.
func (p *Poller) Totals() model.Totals {
	return p.totals
}

// RunOnce fetches transcripts and runs a single cycle over them.
//
// A fetch failure is returned as an UPSTREAM_FETCH error and no cycle runs.
// An empty fetch skips the cycle and returns ok=false.
func (p *Poller) RunOnce(ctx context.Context) (report model.CycleReport, ok bool, err error) {
	transcripts, err := p.source.Transcripts(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return model.CycleReport{}, false, ctx.Err()
		}
		return model.CycleReport{}, false, NewFetchError(err)
	}
	if len(transcripts) == 0 {
		slog.Debug("no transcripts fetched, skipping cycle")
		return model.CycleReport{}, false, nil
	}

	report = p.sync.RunCycle(ctx, transcripts)
	p.totals.Add(report)
	if p.onReport != nil {
		p.onReport(report)
	}
	return report, true, nil
}

// Run starts the poll loop. Blocks until the context is cancelled, a fetch
// fails, or the cycle cap is reached.
//
// Fetch failures are fatal and returned. Task service failures are handled
// inside each cycle and never end the loop. Cancellation returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("poller starting", "interval", p.interval, "max_cycles", p.maxCycles)

	for n := 1; ; n++ {
		if _, _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("poller stopping: context cancelled")
				return ctx.Err()
			}
			slog.Error("poller stopping: fetch failed", "error", err)
			return err
		}

		if p.maxCycles > 0 && n >= p.maxCycles {
			slog.Info("poller stopping: cycle limit reached", "cycles", n)
			return nil
		}

		if err := p.wait(ctx); err != nil {
			slog.Info("poller stopping: context cancelled")
			return err
		}
	}
}

// wait sleeps for the poll interval or until ctx is done.
func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
