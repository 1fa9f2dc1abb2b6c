package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/testutil"
)

func TestPoller_RunOnce(t *testing.T) {
	src := testutil.NewFakeSource([]model.Transcript{
		transcript("log-1", "add buy milk to my to-do list"),
	})
	svc := testutil.NewFakeTaskService()
	p := NewPoller(src, newTestSynchronizer(svc))

	r, ok, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Added)
	assert.Equal(t, 1, p.Totals().Cycles)
}

func TestPoller_RunOnce_EmptyFetchSkipsCycle(t *testing.T) {
	src := testutil.NewFakeSource()
	svc := testutil.NewFakeTaskService()
	p := NewPoller(src, newTestSynchronizer(svc))

	_, ok, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, svc.Calls(), "no listing when nothing was fetched")
	assert.Equal(t, 0, p.Totals().Cycles)
}

func TestPoller_RunOnce_FetchError(t *testing.T) {
	src := testutil.NewFakeSource()
	src.FailOnCall(1)
	svc := testutil.NewFakeTaskService()
	p := NewPoller(src, newTestSynchronizer(svc))

	_, ok, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, IsFetchError(err))
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Empty(t, svc.Calls())
}

func TestPoller_Run_MaxCycles(t *testing.T) {
	src := testutil.NewFakeSource(
		[]model.Transcript{transcript("log-1", "add buy milk to my to-do list")},
		[]model.Transcript{transcript("log-1", "add buy milk to my to-do list. add call mom to my to-do list")},
	)
	svc := testutil.NewFakeTaskService()

	var reports []model.CycleReport
	p := NewPoller(src, newTestSynchronizer(svc, WithSentenceTracking()),
		WithInterval(time.Millisecond),
		WithMaxCycles(3),
		WithReportHandler(func(r model.CycleReport) { reports = append(reports, r) }),
	)

	err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, src.Calls())
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"Buy milk", "Call mom"}, svc.Created())
	assert.Equal(t, 2, reports[2].Seen)

	totals := p.Totals()
	assert.Equal(t, 3, totals.Cycles)
	assert.Equal(t, 2, totals.Added)
}

func TestPoller_Run_FetchErrorIsFatal(t *testing.T) {
	src := testutil.NewFakeSource([]model.Transcript{transcript("log-1", "nothing")})
	src.FailOnCall(2)
	p := NewPoller(src, newTestSynchronizer(testutil.NewFakeTaskService()),
		WithInterval(time.Millisecond))

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, 1, p.Totals().Cycles)
}

func TestPoller_Run_CreateFailureDoesNotStopLoop(t *testing.T) {
	src := testutil.NewFakeSource([]model.Transcript{transcript("log-1", "add buy milk to my to-do list")})
	svc := testutil.NewFakeTaskService()
	svc.FailCreate("Buy milk")
	p := NewPoller(src, newTestSynchronizer(svc), WithInterval(time.Millisecond), WithMaxCycles(2))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, p.Totals().Failed)
}

func TestPoller_Run_Cancellation(t *testing.T) {
	src := testutil.NewFakeSource([]model.Transcript{transcript("log-1", "hello")})
	p := NewPoller(src, newTestSynchronizer(testutil.NewFakeTaskService()),
		WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(testutil.NewFakeSource(), newTestSynchronizer(testutil.NewFakeTaskService()))
	assert.Equal(t, DefaultPollInterval, p.interval)
}
