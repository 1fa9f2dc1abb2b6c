// Package summarize asks an OpenAI-compatible chat completions endpoint to
// summarize lifelog transcripts.
package summarize

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/roach88/lifesync/internal/lifelog"
	"github.com/roach88/lifesync/internal/transport"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4.1"

	systemPrompt = "You are a helpful assistant that summarizes transcripts."

	// SSE lines can carry long deltas.
	maxLineSize = 1 << 20
)

// ErrMissingKey is returned when no API key is configured.
var ErrMissingKey = errors.New("openai api key not set")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		Delta        chatMessage `json:"delta"`
		FinishReason *string     `json:"finish_reason"`
	} `json:"choices"`
}

// Client talks to the chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (e.g. for tests or a proxy).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel selects the chat model.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		c.http = t
	}
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		http:    transport.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prompt renders the user message for logs.
func Prompt(logs []lifelog.Lifelog) string {
	var b strings.Builder
	b.WriteString("Summarize the following transcripts:\n\n")
	for i, l := range logs {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		if l.Title != "" && !strings.Contains(l.Markdown, l.Title) {
			fmt.Fprintf(&b, "# %s\n\n", l.Title)
		}
		b.WriteString(strings.TrimSpace(l.Markdown))
	}
	return b.String()
}

// Summarize returns the whole summary in one response.
func (c *Client) Summarize(ctx context.Context, logs []lifelog.Lifelog) (string, error) {
	body, err := c.http.Do(ctx, c.request(logs, false))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarize: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream writes the summary to w as it is generated.
func (c *Client) Stream(ctx context.Context, logs []lifelog.Lifelog, w io.Writer) error {
	resp, err := c.http.Open(ctx, c.request(logs, true))
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	defer resp.Body.Close()

	return copyDeltas(resp.Body, w)
}

// copyDeltas reads server-sent events and writes each content delta to w.
// It stops at "data: [DONE]" or end of stream.
func copyDeltas(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != nil || choice.Delta.Content == "" {
			continue
		}
		if _, err := io.WriteString(w, choice.Delta.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) request(logs []lifelog.Lifelog, stream bool) transport.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		if c.apiKey == "" {
			return nil, ErrMissingKey
		}
		payload, err := json.Marshal(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: Prompt(logs)},
			},
			Stream: stream,
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		if stream {
			req.Header.Set("Accept", "text/event-stream")
		}
		return req, nil
	}
}
