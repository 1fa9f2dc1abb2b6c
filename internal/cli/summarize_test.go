package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeOpenAI answers chat completions with a fixed summary, streamed in
// two chunks when the request asks for a stream.
func newFakeOpenAI(t *testing.T) *atomic.Int32 {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		calls.Add(1)

		var req struct {
			Model  string `json:"model"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)

		if !req.Stream {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"A quiet day."}}]}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"A quiet \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"day.\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_URL", srv.URL)
	t.Setenv("OPENAI_MODEL", "gpt-test")
	return calls
}

func TestSummarize_Streams(t *testing.T) {
	a := newAPIs(t)
	calls := newFakeOpenAI(t)
	a.limitless.logs = []map[string]any{lifelogJSON("log-1", "# Walk\n\nNice weather.")}

	out, err := execute(t, NewSummarizeCommand, "text")
	require.NoError(t, err)
	assert.Equal(t, "A quiet day.\n", out)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "10", a.limitless.lastQuery(t)["limit"])
}

func TestSummarize_NoStream(t *testing.T) {
	a := newAPIs(t)
	newFakeOpenAI(t)
	a.limitless.logs = []map[string]any{lifelogJSON("log-1", "# Walk")}

	out, err := execute(t, NewSummarizeCommand, "text", "--no-stream")
	require.NoError(t, err)
	assert.Equal(t, "A quiet day.\n", out)
}

func TestSummarize_JSON(t *testing.T) {
	a := newAPIs(t)
	newFakeOpenAI(t)
	a.limitless.logs = []map[string]any{
		lifelogJSON("log-1", "# Walk"),
		lifelogJSON("log-2", "# Dinner"),
	}

	out, err := execute(t, NewSummarizeCommand, "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   SummaryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Lifelogs)
	assert.Equal(t, "A quiet day.", resp.Data.Summary)
}

func TestSummarize_NoLifelogs(t *testing.T) {
	newAPIs(t)
	calls := newFakeOpenAI(t)

	out, err := execute(t, NewSummarizeCommand, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No lifelogs fetched.")
	assert.Zero(t, calls.Load())
}

func TestSummarize_MissingOpenAIKey(t *testing.T) {
	a := newAPIs(t)

	_, err := execute(t, NewSummarizeCommand, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Zero(t, a.limitless.requestCount())
}
