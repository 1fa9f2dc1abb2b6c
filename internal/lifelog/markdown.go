package lifelog

import (
	"fmt"
	"io"
)

// WriteMarkdown writes each lifelog's markdown body followed by a blank
// line. Records without markdown produce an empty block.
func WriteMarkdown(w io.Writer, logs []Lifelog) error {
	for _, l := range logs {
		if _, err := fmt.Fprintf(w, "%s\n\n", l.Markdown); err != nil {
			return err
		}
	}
	return nil
}
