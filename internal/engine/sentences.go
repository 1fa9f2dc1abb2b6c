package engine

// ProcessedSentences remembers which raw sentences of each transcript the
// continuous mode has already examined, so a transcript fetched again on the
// next poll does not produce the same candidates twice.
//
// The set lives only as long as the process. Nothing is persisted: after a
// restart every sentence is examined again and the ledger alone prevents
// duplicate creations.
//
// Not safe for concurrent use; the Synchronizer is its only owner.
type ProcessedSentences struct {
	history map[string]map[string]bool // map[transcript_id]map[sentence]bool
}

// NewProcessedSentences creates an empty set.
func NewProcessedSentences() *ProcessedSentences {
	return &ProcessedSentences{
		history: make(map[string]map[string]bool),
	}
}

// Seen reports whether sentence was already processed for transcriptID.
func (p *ProcessedSentences) Seen(transcriptID, sentence string) bool {
	return p.history[transcriptID][sentence]
}

// Mark records sentence as processed for transcriptID.
func (p *ProcessedSentences) Mark(transcriptID, sentence string) {
	if p.history[transcriptID] == nil {
		p.history[transcriptID] = make(map[string]bool)
	}
	p.history[transcriptID][sentence] = true
}

// Retain drops the history of every transcript not listed in ids. The
// continuous mode calls it with the current fetch window so the set stays
// bounded by the poll limit.
func (p *ProcessedSentences) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for id := range p.history {
		if !keep[id] {
			delete(p.history, id)
		}
	}
}

// Size returns the number of transcripts with tracked sentences.
func (p *ProcessedSentences) Size() int {
	return len(p.history)
}
