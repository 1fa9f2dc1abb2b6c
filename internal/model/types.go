package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Transcript is a single lifelog as seen by the engine.
type Transcript struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Task is a sub-task of the configured parent in the task service.
// ID is empty for placeholders the engine synthesizes before the service
// has confirmed a creation.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Key returns the normalized key of the task's text.
func (t Task) Key() string {
	return NormalizeKey(t.Text)
}

// NormalizeKey canonicalizes task text for equality comparison:
// NFC composed, trimmed, lowercased. Two texts with the same key are the
// same task.
//
// A fresh Caser is built per call because cases.Caser is stateful.
func NormalizeKey(text string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(norm.NFC.String(text)))
}
