// Package corpus converts raw documents and their annotation records into
// tokenized, span-aligned, sentence-level training examples.
package corpus

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"clinlp/internal/models"
	"clinlp/internal/tokenize"
)

// ErrEmptyCorpus is returned when a corpus holds zero documents or yields
// zero annotated examples.
var ErrEmptyCorpus = errors.New("empty corpus")

// AlignmentError reports an annotation span outside document bounds.
type AlignmentError struct {
	NoteID string
	Start  int
	End    int
	Length int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("note %s: span [%d, %d) outside document bounds [0, %d)",
		e.NoteID, e.Start, e.End, e.Length)
}

// Adapter turns annotated documents into training examples, retaining only
// sentences that contain at least one target-label span.
type Adapter struct {
	targets map[string]bool
	rng     *rand.Rand
}

// NewAdapter creates an adapter for the given target label set. The seed
// drives the one-time shuffle of the adapted example sequence.
func NewAdapter(targetLabels []string, seed int64) *Adapter {
	targets := make(map[string]bool, len(targetLabels))
	for _, label := range targetLabels {
		targets[label] = true
	}

	return &Adapter{
		targets: targets,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Annotate tokenizes and sentence-splits a document, aligns its annotation
// records to token boundaries and resolves overlapping spans. A document
// with zero annotation records is valid.
func (a *Adapter) Annotate(doc *models.Document) error {
	doc.Tokens, doc.Sents = tokenize.Segment(doc.Text)

	var spans []*models.Span

	for _, ann := range doc.Annotations {
		span, err := alignSpan(doc, ann)
		if err != nil {
			return err
		}

		spans = append(spans, span)
	}

	doc.Ents = filterSpans(spans)

	doc.Spans = make(map[string][]*models.Span)
	for _, span := range doc.Ents {
		doc.Spans[span.Label] = append(doc.Spans[span.Label], span)
	}

	return nil
}

// Examples annotates all documents and splits them into one example per
// sentence, translating span offsets into sentence-relative token indices.
// Sentences without a target-label span are discarded. The resulting
// sequence is shuffled once with the adapter's seeded source.
func (a *Adapter) Examples(docs []*models.Document) ([]*models.Example, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", ErrEmptyCorpus)
	}

	var examples []*models.Example

	for _, doc := range docs {
		if err := a.Annotate(doc); err != nil {
			return nil, err
		}

		for _, sent := range doc.Sents {
			example := splitSentence(doc, sent)
			if example.HasLabel(a.targets) {
				examples = append(examples, example)
			}
		}
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no annotated examples", ErrEmptyCorpus)
	}

	a.rng.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})

	return examples, nil
}

// alignSpan maps character offsets to token indices with "expand"
// alignment: offsets inside a token grow outward to the containing token
// boundaries, never shrinking and never dropping the span.
func alignSpan(doc *models.Document, ann models.Annotation) (*models.Span, error) {
	if len(doc.Tokens) == 0 || ann.Start < 0 || ann.End > len(doc.Text) || ann.Start >= ann.End {
		return nil, &AlignmentError{
			NoteID: doc.ID,
			Start:  ann.Start,
			End:    ann.End,
			Length: len(doc.Text),
		}
	}

	tokens := doc.Tokens

	// First token overlapping the span start, first token at or past the end.
	start := sort.Search(len(tokens), func(i int) bool { return tokens[i].End > ann.Start })
	end := sort.Search(len(tokens), func(i int) bool { return tokens[i].Start >= ann.End })

	// A span lying entirely between tokens snaps to the following token,
	// or the preceding one at end of text.
	if start >= end {
		if end < len(tokens) {
			end = start + 1
		} else {
			start = end - 1
		}
	}

	span := &models.Span{
		Label:     ann.Label,
		Start:     start,
		End:       end,
		StartChar: tokens[start].Start,
		EndChar:   tokens[end-1].End,
	}
	span.Text = doc.Text[span.StartChar:span.EndChar]

	return span, nil
}

// filterSpans resolves overlapping spans deterministically: longest span
// first, ties broken by earliest start; overlapping shorter spans are
// discarded. The result is sorted by start position.
func filterSpans(spans []*models.Span) []*models.Span {
	ordered := append([]*models.Span(nil), spans...)

	sort.SliceStable(ordered, func(i, j int) bool {
		li := ordered[i].End - ordered[i].Start
		lj := ordered[j].End - ordered[j].Start

		if li != lj {
			return li > lj
		}

		return ordered[i].Start < ordered[j].Start
	})

	var kept []*models.Span

	for _, span := range ordered {
		overlaps := false

		for _, k := range kept {
			if span.Start < k.End && k.Start < span.End {
				overlaps = true

				break
			}
		}

		if !overlaps {
			kept = append(kept, span)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	return kept
}

// splitSentence extracts one sentence as an example, keeping only spans
// fully contained in the sentence.
func splitSentence(doc *models.Document, sent models.Sentence) *models.Example {
	words := make([]string, 0, sent.End-sent.Start)
	for _, token := range doc.Tokens[sent.Start:sent.End] {
		words = append(words, token.Text)
	}

	spans := make(map[string][]models.TokenSpan)

	for label, group := range doc.Spans {
		for _, span := range group {
			if span.Start >= sent.Start && span.End <= sent.End {
				spans[label] = append(spans[label], models.TokenSpan{
					Label: label,
					Start: span.Start - sent.Start,
					End:   span.End - sent.Start,
				})
			}
		}
	}

	return &models.Example{
		NoteID: doc.ID,
		Words:  words,
		Spans:  spans,
	}
}
