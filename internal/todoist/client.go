// Package todoist is a client for the Todoist REST API, limited to the
// sub-task operations the sync engine needs.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/roach88/lifesync/internal/model"
	"github.com/roach88/lifesync/internal/transport"
)

const (
	// DefaultBaseURL is the REST v2 root.
	DefaultBaseURL = "https://api.todoist.com/rest/v2"

	// DefaultRate is the request budget per second. Todoist allows 450
	// requests per 15 minutes per user; bursts are what matter here.
	DefaultRate = 4
)

// Task is a task as returned by the API.
type Task struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
	ParentID    string `json:"parent_id,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

// Record converts the API task to the engine's record.
func (t Task) Record() model.Task {
	return model.Task{ID: t.ID, Text: t.Content, Completed: t.IsCompleted}
}

type createRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

// Client talks to the REST API with a bearer token.
type Client struct {
	token   string
	baseURL string
	http    *transport.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
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

// WithRate sets the request budget in requests per second. A value <= 0
// disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client authenticating with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    transport.New(nil),
		limiter: rate.NewLimiter(rate.Limit(DefaultRate), DefaultRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSubtasks returns the tasks whose parent is parentID.
func (c *Client) ListSubtasks(ctx context.Context, parentID string) ([]Task, error) {
	endpoint := c.baseURL + "/tasks?" + url.Values{"parent_id": {parentID}}.Encode()
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("list sub-tasks of %s: %w", parentID, err)
	}

	var tasks []Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("decode sub-tasks: %w", err)
	}

	// The endpoint may ignore parent_id; keep only our children.
	out := tasks[:0]
	for _, t := range tasks {
		if t.ParentID == parentID {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateSubtask adds a task with content under parentID.
func (c *Client) CreateSubtask(ctx context.Context, parentID, content string) (Task, error) {
	payload, err := json.Marshal(createRequest{Content: content, ParentID: parentID})
	if err != nil {
		return Task{}, fmt.Errorf("encode task: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/tasks", payload)
	if err != nil {
		return Task{}, fmt.Errorf("create sub-task %q: %w", content, err)
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return Task{}, fmt.Errorf("decode created task: %w", err)
	}
	return task, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	})
}

// Subtasks binds a Client to one parent task. It is the task service the
// engine reconciles against.
type Subtasks struct {
	client   *Client
	parentID string
}

// NewSubtasks returns the sub-task view of parentID.
func NewSubtasks(c *Client, parentID string) *Subtasks {
	return &Subtasks{client: c, parentID: parentID}
}

// ParentID returns the parent task identifier.
func (s *Subtasks) ParentID() string {
	return s.parentID
}

// ListTasks returns the parent's sub-tasks, optionally only the
// incomplete ones.
func (s *Subtasks) ListTasks(ctx context.Context, incompleteOnly bool) ([]model.Task, error) {
	tasks, err := s.client.ListSubtasks(ctx, s.parentID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if incompleteOnly && t.IsCompleted {
			continue
		}
		out = append(out, t.Record())
	}
	return out, nil
}

// CreateTask adds a sub-task with text under the parent.
func (s *Subtasks) CreateTask(ctx context.Context, text string) (model.Task, error) {
	t, err := s.client.CreateSubtask(ctx, s.parentID, text)
	if err != nil {
		return model.Task{}, err
	}
	return t.Record(), nil
}
