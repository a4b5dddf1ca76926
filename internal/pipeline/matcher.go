package pipeline

import (
	"strings"

	"clinlp/pkg/textutil"
)

// occurrence marks a cue match as a token index range, sentence-relative.
type occurrence struct {
	start int
	end   int
}

// cueMatcher finds occurrences of multi-word cue terms in a folded token
// sequence.
type cueMatcher struct {
	cues [][]string
}

// newCueMatcher compiles cue terms into folded token sequences. Terms are
// split on whitespace; empty terms are dropped.
func newCueMatcher(terms []string) *cueMatcher {
	m := &cueMatcher{}

	for _, term := range terms {
		fields := strings.Fields(textutil.Fold(textutil.NormalizeWhitespace(term)))
		if len(fields) > 0 {
			m.cues = append(m.cues, fields)
		}
	}

	return m
}

// find returns all cue occurrences in the folded word sequence.
func (m *cueMatcher) find(words []string) []occurrence {
	var occs []occurrence

	for _, cue := range m.cues {
		for i := 0; i+len(cue) <= len(words); i++ {
			matched := true

			for j, w := range cue {
				if words[i+j] != w {
					matched = false

					break
				}
			}

			if matched {
				occs = append(occs, occurrence{start: i, end: i + len(cue)})
			}
		}
	}

	return occs
}

// foldWords lowercases a token window for matching.
func foldWords(words []string) []string {
	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = textutil.Fold(w)
	}

	return folded
}

// dropOverlapping removes occurrences overlapping any pseudo occurrence.
// Pseudo cues neutralize the cues they contain.
func dropOverlapping(occs, pseudo []occurrence) []occurrence {
	if len(pseudo) == 0 {
		return occs
	}

	var kept []occurrence

	for _, occ := range occs {
		cancelled := false

		for _, p := range pseudo {
			if occ.start < p.end && p.start < occ.end {
				cancelled = true

				break
			}
		}

		if !cancelled {
			kept = append(kept, occ)
		}
	}

	return kept
}
