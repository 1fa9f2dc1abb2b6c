package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/lifesync/internal/model"
)

// ErrInjected is returned by fakes when a failure is configured.
var ErrInjected = errors.New("injected failure")

// Call is one request seen by FakeTaskService.
type Call struct {
	Op             string // "list" or "create"
	Text           string // create only
	IncompleteOnly bool   // list only
}

// FakeTaskService is an in-memory task list under a single parent.
//
// Created tasks are appended to the list, so a later listing sees them,
// just like the real service. Failures can be injected for listing and for
// specific texts.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeTaskService struct {
	mu        sync.Mutex
	tasks     []model.Task
	calls     []Call
	nextID    int
	failList  bool
	failTexts map[string]bool
}

// NewFakeTaskService creates a service pre-populated with tasks. Tasks
// without an id get one assigned.
func NewFakeTaskService(tasks ...model.Task) *FakeTaskService {
	f := &FakeTaskService{failTexts: make(map[string]bool)}
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = f.newID()
		}
		f.tasks = append(f.tasks, t)
	}
	return f
}

func (f *FakeTaskService) newID() string {
	f.nextID++
	return fmt.Sprintf("task-%d", f.nextID)
}

// FailList makes every listing fail (or succeed again with false).
func (f *FakeTaskService) FailList(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failList = fail
}

// FailCreate makes creations of exactly text fail.
func (f *FakeTaskService) FailCreate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failTexts[text] = true
}

// Complete marks every task with text as completed.
func (f *FakeTaskService) Complete(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].Text == text {
			f.tasks[i].Completed = true
		}
	}
}

// ListTasks implements engine.TaskService.
func (f *FakeTaskService) ListTasks(ctx context.Context, incompleteOnly bool) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Op: "list", IncompleteOnly: incompleteOnly})
	if f.failList {
		return nil, fmt.Errorf("list tasks: %w", ErrInjected)
	}

	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if incompleteOnly && t.Completed {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTask implements engine.TaskService.
func (f *FakeTaskService) CreateTask(ctx context.Context, text string) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Op: "create", Text: text})
	if f.failTexts[text] {
		return model.Task{}, fmt.Errorf("create %q: %w", text, ErrInjected)
	}

	t := model.Task{ID: f.newID(), Text: text}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// Calls returns every request in order.
func (f *FakeTaskService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Created returns the texts of every creation attempt, failed ones
// included, in order.
func (f *FakeTaskService) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Op == "create" {
			out = append(out, c.Text)
		}
	}
	return out
}

// Tasks returns a copy of the current task list.
func (f *FakeTaskService) Tasks() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks...)
}
