package lifelog

import "github.com/roach88/lifesync/internal/model"

// Direction is the sort order of a lifelog query.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Lifelog is a lifelog record as returned by the API.
type Lifelog struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	Markdown  string        `json:"markdown,omitempty"`
	StartTime string        `json:"startTime,omitempty"`
	EndTime   string        `json:"endTime,omitempty"`
	IsStarred bool          `json:"isStarred,omitempty"`
	UpdatedAt string        `json:"updatedAt,omitempty"`
	Contents  []ContentNode `json:"contents,omitempty"`
}

// ContentNode is one structured block of a lifelog (heading or utterance).
type ContentNode struct {
	Type              string `json:"type"`
	Content           string `json:"content"`
	StartTime         string `json:"startTime,omitempty"`
	EndTime           string `json:"endTime,omitempty"`
	SpeakerName       string `json:"speakerName,omitempty"`
	SpeakerIdentifier string `json:"speakerIdentifier,omitempty"`
}

// Transcript converts the record to the engine's view of it. The markdown
// body is the text that gets scanned; a missing body becomes empty.
func (l Lifelog) Transcript() model.Transcript {
	return model.Transcript{ID: l.ID, Body: l.Markdown}
}

// Page is one response from the lifelogs endpoint.
type Page struct {
	Lifelogs   []Lifelog
	NextCursor string
}

type listResponse struct {
	Data struct {
		Lifelogs []Lifelog `json:"lifelogs"`
	} `json:"data"`
	Meta struct {
		Lifelogs struct {
			NextCursor string `json:"nextCursor"`
			Count      int    `json:"count"`
		} `json:"lifelogs"`
	} `json:"meta"`
}
