package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/store"
	"github.com/roach88/lifesync/internal/testutil"
)

func runSyncCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	opts := &SyncOptions{
		RootOptions: &RootOptions{Format: format, EnvDir: t.TempDir()},
		CycleIDs:    testutil.NewSequentialIDs("cycle"),
	}
	buf := &bytes.Buffer{}
	cmd := newSyncCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// decodeSync parses the JSON output of the sync command.
func decodeSync(t *testing.T, out string) SyncResult {
	t.Helper()
	var resp struct {
		Status string     `json:"status"`
		Data   SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestSync_MissingCredentials(t *testing.T) {
	a := newAPIs(t)
	t.Setenv("TODOIST_API_TOKEN", "")
	t.Setenv("TODOIST_PARENT_ID", "")

	_, err := runSyncCmd(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "TODOIST_API_TOKEN")
	assert.Contains(t, err.Error(), "TODOIST_PARENT_ID")
	assert.Zero(t, a.limitless.requestCount(), "no network activity before credentials are checked")
}

func TestSync_CreatesNewTask(t *testing.T) {
	a := newAPIs(t)
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Remember to add buy milk to my to-do list before we leave."),
	}

	out, err := runSyncCmd(t, "text")
	require.NoError(t, err)

	assert.Equal(t, []string{"Buy milk"}, a.todoist.created())
	assert.Contains(t, out, "Cycle 1 (cycle-1)")
	assert.Contains(t, out, "added: 1  skipped: 0  failed: 0")
	assert.Contains(t, out, "+ Buy milk (created td-1)")

	q := a.limitless.lastQuery(t)
	assert.Equal(t, "desc", q["direction"])
	assert.Equal(t, "10", q["limit"])
	assert.Equal(t, "UTC", q["timezone"])
	assert.Equal(t, "true", q["includeMarkdown"])
}

func TestSync_LimitFlag(t *testing.T) {
	a := newAPIs(t)
	a.limitless.logs = []map[string]any{lifelogJSON("log-1", "nothing to do")}

	_, err := runSyncCmd(t, "text", "--limit", "3")
	require.NoError(t, err)
	assert.Equal(t, "3", a.limitless.lastQuery(t)["limit"])
}

func TestSync_SkipsExistingTask(t *testing.T) {
	a := newAPIs(t)
	a.todoist.tasks = []todoistTask{{ID: "t-9", Content: "buy MILK", ParentID: "parent-1"}}
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add Buy milk to my to-do list."),
	}

	out, err := runSyncCmd(t, "text")
	require.NoError(t, err)

	assert.Empty(t, a.todoist.created())
	assert.Contains(t, out, "= Buy milk (skipped t-9)")
}

func TestSync_EmptyFetch(t *testing.T) {
	newAPIs(t)

	out, err := runSyncCmd(t, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No lifelogs fetched.")

	out, err = runSyncCmd(t, "json")
	require.NoError(t, err)
	res := decodeSync(t, out)
	assert.False(t, res.Fetched)
	assert.Nil(t, res.Report)
}

func TestSync_FetchFailureIsFatal(t *testing.T) {
	a := newAPIs(t)
	a.limitless.status = http.StatusForbidden

	_, err := runSyncCmd(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "sync failed")
	assert.Empty(t, a.todoist.created())
}

func TestSync_CreateFailureIsolated(t *testing.T) {
	a := newAPIs(t)
	a.todoist.failCreate["Call mom"] = true
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add call mom to my to-do list. Then add pay rent to my to-do list."),
	}

	out, err := runSyncCmd(t, "json")
	require.NoError(t, err)

	res := decodeSync(t, out)
	require.True(t, res.Fetched)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.Added)
	assert.Equal(t, 1, res.Report.Failed)
	assert.Equal(t, []string{"Call mom", "Pay rent"}, a.todoist.created())

	require.Len(t, res.Report.Outcomes, 2)
	assert.Equal(t, model.ActionFailed, res.Report.Outcomes[0].Action)
	assert.NotEmpty(t, res.Report.Outcomes[0].Error)
	assert.Equal(t, model.ActionCreated, res.Report.Outcomes[1].Action)
}

func TestSync_ListFailureDegrades(t *testing.T) {
	a := newAPIs(t)
	a.todoist.listStatus = http.StatusUnauthorized
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add buy milk to my to-do list."),
	}

	out, err := runSyncCmd(t, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: task list unavailable")
	assert.Equal(t, []string{"Buy milk"}, a.todoist.created())
}

func TestSync_IncludeCompletedRecreates(t *testing.T) {
	a := newAPIs(t)
	a.todoist.tasks = []todoistTask{{ID: "t-1", Content: "Buy milk", IsCompleted: true, ParentID: "parent-1"}}
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add buy milk to my to-do list."),
	}

	out, err := runSyncCmd(t, "json", "--include-completed")
	require.NoError(t, err)

	res := decodeSync(t, out)
	require.Len(t, res.Report.Outcomes, 1)
	assert.Equal(t, model.ActionRecreated, res.Report.Outcomes[0].Action)
	assert.Equal(t, []string{"Buy milk"}, a.todoist.created())
}

func TestSync_IncompleteOnlyIgnoresCompleted(t *testing.T) {
	a := newAPIs(t)
	a.todoist.tasks = []todoistTask{{ID: "t-1", Content: "Buy milk", IsCompleted: true, ParentID: "parent-1"}}
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add buy milk to my to-do list."),
	}

	out, err := runSyncCmd(t, "json")
	require.NoError(t, err)

	res := decodeSync(t, out)
	require.Len(t, res.Report.Outcomes, 1)
	assert.Equal(t, model.ActionCreated, res.Report.Outcomes[0].Action)
}

func TestSync_Journal(t *testing.T) {
	a := newAPIs(t)
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "Add buy milk to my to-do list."),
	}
	path := filepath.Join(t.TempDir(), "journal.db")

	_, err := runSyncCmd(t, "text", "--journal", path)
	require.NoError(t, err)

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	entry, err := st.ReadCycle(context.Background(), "cycle-1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Report.Added)
	require.Len(t, entry.Report.Outcomes, 1)
	assert.Equal(t, "Buy milk", entry.Report.Outcomes[0].Text)
}

func TestSync_InvalidConfig(t *testing.T) {
	newAPIs(t)
	t.Setenv("POLL_LIMIT", "-1")

	_, err := runSyncCmd(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
