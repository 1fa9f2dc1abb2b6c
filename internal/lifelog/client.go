// Package lifelog is a client for the Limitless lifelogs API.
package lifelog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/transport"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.limitless.ai"

	// DefaultBatchSize is the page size requested from the API.
	DefaultBatchSize = 10

	// DefaultLimit is the overall result count when none is given.
	DefaultLimit = 50

	lifelogsEndpoint = "v1/lifelogs"
	apiKeyHeader     = "X-API-Key"
)

// Query selects the lifelogs to fetch.
type Query struct {
	// Limit caps the total number of lifelogs returned. 0 fetches every
	// available page.
	Limit int

	// BatchSize is the page size. Clamped to Limit when Limit is smaller.
	BatchSize int

	IncludeMarkdown bool
	IncludeHeadings bool
	Direction       Direction

	// Date restricts results to one day (YYYY-MM-DD). Optional.
	Date string

	// Timezone is an IANA zone name. Empty means the local zone.
	Timezone string

	// Cursor resumes pagination from a previous page. Optional.
	Cursor string
}

// DefaultQuery returns the query used when callers do not override fields.
func DefaultQuery() Query {
	return Query{
		Limit:           DefaultLimit,
		BatchSize:       DefaultBatchSize,
		IncludeMarkdown: true,
		Direction:       Ascending,
	}
}

// Recent returns a query for the n most recent lifelogs, newest first.
func Recent(n int) Query {
	q := DefaultQuery()
	q.Limit = n
	q.Direction = Descending
	return q
}

// Client fetches lifelogs.
type Client struct {
	apiKey  string
	baseURL string
	http    *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTransport replaces the HTTP transport (retry policy, timeouts).
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		c.http = t
	}
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    transport.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch follows the cursor until the query's limit is reached, the server
// stops returning a cursor, or a page comes back short.
func (c *Client) Fetch(ctx context.Context, q Query) ([]Lifelog, error) {
	batch := q.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if q.Limit > 0 && q.Limit < batch {
		batch = q.Limit
	}
	if q.Timezone == "" {
		q.Timezone = LocalTimezone()
	}

	var all []Lifelog
	cursor := q.Cursor
	for {
		page, err := c.FetchPage(ctx, q, cursor, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Lifelogs...)

		if q.Limit > 0 && len(all) >= q.Limit {
			return all[:q.Limit], nil
		}
		if page.NextCursor == "" || len(page.Lifelogs) < batch {
			return all, nil
		}

		slog.Debug("fetched lifelog page", "count", len(page.Lifelogs), "next_cursor", page.NextCursor)
		cursor = page.NextCursor
	}
}

// FetchPage requests a single page of size lifelogs starting at cursor.
func (c *Client) FetchPage(ctx context.Context, q Query, cursor string, size int) (Page, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(size))
	params.Set("includeMarkdown", strconv.FormatBool(q.IncludeMarkdown))
	params.Set("includeHeadings", strconv.FormatBool(q.IncludeHeadings))
	direction := q.Direction
	if direction == "" {
		direction = Ascending
	}
	params.Set("direction", string(direction))
	if q.Timezone != "" {
		params.Set("timezone", q.Timezone)
	}
	if q.Date != "" {
		params.Set("date", q.Date)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, lifelogsEndpoint, params.Encode())
	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return Page{}, fmt.Errorf("fetch lifelogs: %w", err)
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("decode lifelogs: %w", err)
	}

	return Page{
		Lifelogs:   resp.Data.Lifelogs,
		NextCursor: resp.Meta.Lifelogs.NextCursor,
	}, nil
}

// Feed adapts a Client and a fixed Query into a transcript source.
type Feed struct {
	Client *Client
	Query  Query
}

// Transcripts fetches the feed's query and returns the engine's view of
// each record, in the order the API returned them.
func (f Feed) Transcripts(ctx context.Context) ([]model.Transcript, error) {
	logs, err := f.Client.Fetch(ctx, f.Query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Transcript, len(logs))
	for i, l := range logs {
		out[i] = l.Transcript()
	}
	return out, nil
}
