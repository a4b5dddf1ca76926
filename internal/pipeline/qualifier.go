package pipeline

import (
	"clinlp/internal/models"
)

// qualifier is the shared engine of the rule-based components: it matches
// cue occurrences per sentence and sets a structured attribute on entity
// spans preceded or followed by an active cue.
type qualifier struct {
	name      string
	pseudo    *cueMatcher
	preceding *cueMatcher
	following *cueMatcher
	// blocking cues suppress the attribute for the whole sentence.
	blocking *cueMatcher
	apply    func(span *models.Span)
}

// Name returns the component name.
func (q *qualifier) Name() string {
	return q.name
}

// Process annotates every entity span of the document, sentence by
// sentence. Spans crossing sentence boundaries are qualified by the
// sentence they start in.
func (q *qualifier) Process(doc *models.Document) error {
	for _, sent := range doc.Sents {
		words := foldWords(tokenTexts(doc, sent))

		pseudo := q.pseudo.find(words)
		preceding := dropOverlapping(q.preceding.find(words), pseudo)
		following := dropOverlapping(q.following.find(words), pseudo)

		if q.blocking != nil && len(q.blocking.find(words)) > 0 {
			continue
		}

		if len(preceding) == 0 && len(following) == 0 {
			continue
		}

		for _, ent := range doc.Ents {
			if ent.Start < sent.Start || ent.Start >= sent.End {
				continue
			}

			relStart := ent.Start - sent.Start
			relEnd := ent.End - sent.Start

			for _, occ := range preceding {
				if occ.end <= relStart {
					q.apply(ent)

					break
				}
			}

			for _, occ := range following {
				if occ.start >= relEnd {
					q.apply(ent)

					break
				}
			}
		}
	}

	return nil
}

func tokenTexts(doc *models.Document, sent models.Sentence) []string {
	words := make([]string, 0, sent.End-sent.Start)
	for _, token := range doc.Tokens[sent.Start:sent.End] {
		words = append(words, token.Text)
	}

	return words
}

// fallback returns override when non-empty, otherwise the default terms.
func fallback(override, defaults []string) []string {
	if len(override) > 0 {
		return override
	}

	return defaults
}
