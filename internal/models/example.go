package models

// TokenSpan is a labeled span expressed in sentence-relative token indices.
// Start is inclusive, End exclusive; both index into the owning example's
// word sequence.
type TokenSpan struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Example is a sentence-level training unit: the word tokens of one
// sentence plus its entity spans grouped by label.
type Example struct {
	NoteID string                 `json:"noteId"`
	Words  []string               `json:"words"`
	Spans  map[string][]TokenSpan `json:"spans"`
}

// WordCount returns the length of the token sequence, the sort key used by
// the length-sorted batch sampler.
func (e *Example) WordCount() int {
	return len(e.Words)
}

// HasLabel reports whether the example contains at least one span with a
// label from the given set.
func (e *Example) HasLabel(targets map[string]bool) bool {
	for label, group := range e.Spans {
		if targets[label] && len(group) > 0 {
			return true
		}
	}

	return false
}

// Batch is an ordered group of examples assembled for one optimization step.
type Batch []*Example
