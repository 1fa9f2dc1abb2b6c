// Package extract finds task-addition phrases in transcript text.
//
// A transcript body is split into sentences on runs of '.', '!' and '?'.
// Each sentence is matched against the fixed phrase
//
//	add <phrase> to my to-do list
//
// case-insensitively, and the captured phrase is normalized for display:
// the first word gets a leading capital, every other word is lowercased,
// and whitespace runs collapse to single spaces.
package extract

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lifesync/internal/model"
)

// Pre-filter substrings. Both must appear (case-insensitively) in a body
// before sentence extraction is attempted.
const (
	triggerVerb   = "add"
	triggerTarget = "to my to-do list"
)

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)

	// Lazy capture: only the first match per sentence is used.
	taskPhrase = regexp.MustCompile(`(?i)\badd\s+(.+?)\s+to\s+my\s+to-do\s+list`)
)

// Candidate is a task extracted from one sentence.
type Candidate struct {
	// Sentence is the trimmed raw sentence the task was found in.
	Sentence string `json:"sentence"`

	// Text is the normalized display text sent to the task service.
	Text string `json:"text"`

	// Key is the normalized key used for deduplication.
	Key string `json:"key"`
}

// MightContainTask reports whether body passes the cheap substring
// pre-filter. A false result guarantees Tasks(body) yields nothing.
func MightContainTask(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, triggerVerb) && strings.Contains(lower, triggerTarget)
}

// Sentences splits body into trimmed, non-empty sentence fragments in
// document order.
func Sentences(body string) []string {
	parts := sentenceBreak.Split(body, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Tasks returns a lazy sequence of the candidates found in body, in
// document order. Sentences without a match are skipped silently.
func Tasks(body string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, sentence := range Sentences(body) {
			text, ok := ExtractTask(sentence)
			if !ok {
				continue
			}
			c := Candidate{
				Sentence: sentence,
				Text:     text,
				Key:      model.NormalizeKey(text),
			}
			if !yield(c) {
				return
			}
		}
	}
}

// ExtractTask applies the task phrase to a single sentence and returns the
// normalized task text. Returns false if the sentence has no match or the
// captured phrase is blank.
func ExtractTask(sentence string) (string, bool) {
	m := taskPhrase.FindStringSubmatch(sentence)
	if m == nil {
		return "", false
	}
	text := NormalizeText(m[1])
	if text == "" {
		return "", false
	}
	return text, true
}

// NormalizeText capitalizes the first word of phrase and lowercases the
// rest. NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(phrase string) string {
	words := strings.Fields(norm.NFC.String(phrase))
	if len(words) == 0 {
		return ""
	}

	lower := cases.Lower(language.Und)
	for i, w := range words {
		if i == 0 {
			words[i] = capitalize(w, lower)
			continue
		}
		words[i] = lower.String(w)
	}
	return strings.Join(words, " ")
}

// capitalize title-cases the first rune of word and lowercases the rest.
func capitalize(word string, lower cases.Caser) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return lower.String(word)
	}
	return string(unicode.ToTitle(r)) + lower.String(word[size:])
}
