package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Buy Milk", "buy milk"},
		{"trims", "  call mom \t", "call mom"},
		{"empty", "", ""},
		{"keeps inner spacing", "a  b", "a  b"},
		{"composes accents", "Cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, in := range []string{"Buy Milk", " ÉCOLE ", "Straße", "call MOM"} {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), "input %q", in)
	}
}

func TestTaskKey(t *testing.T) {
	task := Task{ID: "1", Text: "Buy Milk"}
	assert.Equal(t, "buy milk", task.Key())
}

func TestTotalsAdd(t *testing.T) {
	var totals Totals
	totals.Add(CycleReport{Transcripts: 3, Matched: 2, Extracted: 3, Added: 1, Skipped: 1, Failed: 1})
	totals.Add(CycleReport{Transcripts: 2, Matched: 1, Extracted: 1, Seen: 1, Unparseable: 1})

	assert.Equal(t, Totals{
		Cycles:      2,
		Transcripts: 5,
		Matched:     3,
		Extracted:   4,
		Added:       1,
		Skipped:     1,
		Failed:      1,
		Seen:        1,
		Unparseable: 1,
	}, totals)
}
