// Package models defines data structures shared by the corpus reader, the
// adapter and the training pipeline.
package models

// Annotation represents one standoff annotation record: a labeled character
// range into the source text. Start is inclusive, End exclusive.
type Annotation struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Token is a single word token with byte offsets into the document text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentence marks a contiguous token range forming one sentence.
// Start/End are token indices, StartChar/EndChar byte offsets.
type Sentence struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	StartChar int `json:"startChar"`
	EndChar   int `json:"endChar"`
}

// Span is a labeled contiguous token range within a document, with
// structured qualifier attributes set by the rule-based components.
type Span struct {
	Label      string `json:"label"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	StartChar  int    `json:"startChar"`
	EndChar    int    `json:"endChar"`
	Negated    bool   `json:"negated"`
	Hypothesis bool   `json:"hypothesis"`
	History    bool   `json:"history"`
}

// Document pairs raw note text with its annotation records and, once
// processed, its tokens, sentences and entity spans.
type Document struct {
	ID          string
	Text        string
	Annotations []Annotation
	Tokens      []Token
	Sents       []Sentence
	Ents        []*Span
	Spans       map[string][]*Span
}

// Copy returns a deep copy of the document. Entity spans are cloned so the
// copy can be mutated without touching the original.
func (d *Document) Copy() *Document {
	out := &Document{
		ID:          d.ID,
		Text:        d.Text,
		Annotations: append([]Annotation(nil), d.Annotations...),
		Tokens:      append([]Token(nil), d.Tokens...),
		Sents:       append([]Sentence(nil), d.Sents...),
	}

	for _, ent := range d.Ents {
		c := *ent
		out.Ents = append(out.Ents, &c)
	}

	if d.Spans != nil {
		out.Spans = make(map[string][]*Span, len(d.Spans))

		for label, group := range d.Spans {
			for _, span := range group {
				c := *span
				out.Spans[label] = append(out.Spans[label], &c)
			}
		}
	}

	return out
}

// ClearEnts removes all annotations and entity spans, keeping text, tokens
// and sentence boundaries. Used before prediction so the pipeline starts
// from an unannotated document.
func (d *Document) ClearEnts() {
	d.Annotations = nil
	d.Ents = nil
	d.Spans = nil
}

// WordCount returns the number of word tokens in the document.
func (d *Document) WordCount() int {
	return len(d.Tokens)
}
