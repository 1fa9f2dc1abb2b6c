package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifesync/internal/lifelog"
	"github.com/roach88/lifesync/internal/transport"
)

var testLogs = []lifelog.Lifelog{
	{ID: "a", Title: "Standup", Markdown: "# Standup\n\nWe shipped it."},
	{ID: "b", Title: "Lunch", Markdown: "Talked about pasta."},
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr := transport.New(srv.Client())
	tr.Retry = transport.NoRetry()
	return NewClient("sk-test", WithBaseURL(srv.URL), WithModel("test-model"), WithTransport(tr))
}

func TestPrompt(t *testing.T) {
	p := Prompt(testLogs)

	assert.True(t, strings.HasPrefix(p, "Summarize the following transcripts:"))
	assert.Equal(t, 1, strings.Count(p, "Standup"), "title already in markdown is not repeated")
	assert.Contains(t, p, "# Lunch\n\nTalked about pasta.")
	assert.Less(t, strings.Index(p, "Standup"), strings.Index(p, "Lunch"))
}

func TestSummarize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "pasta")

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"A short day."},"finish_reason":"stop"}]}`)
	})

	got, err := c.Summarize(context.Background(), testLogs)
	require.NoError(t, err)
	assert.Equal(t, "A short day.", got)
}

func TestSummarize_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := c.Summarize(context.Background(), testLogs)
	assert.Error(t, err)
}

func TestSummarize_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := c.Summarize(context.Background(), testLogs)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, transport.StatusCode(err))
}

func TestSummarize_MissingKey(t *testing.T) {
	c := NewClient("")

	_, err := c.Summarize(context.Background(), testLogs)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"},\"finish_reason\":null}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"A short \"},\"finish_reason\":null}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"day.\"},\"finish_reason\":null}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	})

	var out strings.Builder
	require.NoError(t, c.Stream(context.Background(), testLogs, &out))
	assert.Equal(t, "A short day.", out.String())
}

func TestCopyDeltas_BadChunk(t *testing.T) {
	var out strings.Builder
	err := copyDeltas(strings.NewReader("data: {not json}\n\n"), &out)
	assert.Error(t, err)
}
