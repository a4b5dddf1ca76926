// Package tokenize provides Unicode word and sentence segmentation on top
// of the UAX #29 segmenters.
package tokenize

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"

	"clinlp/internal/models"
)

// Tokenize segments text into word tokens with byte offsets. Whitespace
// segments are skipped; punctuation is kept as its own token. The segmenter
// partitions the input completely, so offsets are accumulated from the
// segment stream.
func Tokenize(text string) []models.Token {
	var tokens []models.Token

	pos := 0

	segs := words.FromString(text)
	for segs.Next() {
		val := segs.Value()

		if strings.TrimSpace(val) != "" {
			tokens = append(tokens, models.Token{
				Text:  val,
				Start: pos,
				End:   pos + len(val),
			})
		}

		pos += len(val)
	}

	return tokens
}

// Segment tokenizes text and splits it into sentences, mapping each token
// to its sentence. Sentence Start/End are token indices; a token belongs to
// the sentence whose character range contains its first byte.
func Segment(text string) ([]models.Token, []models.Sentence) {
	tokens := Tokenize(text)

	var sents []models.Sentence

	pos := 0
	tok := 0

	segs := sentences.FromString(text)
	for segs.Next() {
		val := segs.Value()
		end := pos + len(val)

		sent := models.Sentence{
			Start:     tok,
			StartChar: pos,
			EndChar:   end,
		}

		for tok < len(tokens) && tokens[tok].Start < end {
			tok++
		}

		sent.End = tok

		// Whitespace-only segments produce no tokens and no sentence.
		if sent.End > sent.Start {
			sents = append(sents, sent)
		}

		pos = end
	}

	return tokens, sents
}
