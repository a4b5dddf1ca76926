package tokenize

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The patient shows no sign of anomaly.")

	want := []string{"The", "patient", "shows", "no", "sign", "of", "anomaly", "."}
	if len(tokens) != len(want) {
		t.Fatalf("token count = %d, want %d", len(tokens), len(want))
	}

	for i, text := range want {
		if tokens[i].Text != text {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i].Text, text)
		}
	}
}

func TestTokenize_Offsets(t *testing.T) {
	text := "The patient shows no sign of anomaly."
	tokens := Tokenize(text)

	for _, token := range tokens {
		if text[token.Start:token.End] != token.Text {
			t.Errorf("offsets %d..%d yield %q, want %q",
				token.Start, token.End, text[token.Start:token.End], token.Text)
		}
	}

	last := tokens[len(tokens)-1]
	if last.Text != "." || last.Start != 36 || last.End != 37 {
		t.Errorf("final token = %+v, want '.' at 36..37", last)
	}

	anomaly := tokens[len(tokens)-2]
	if anomaly.Text != "anomaly" || anomaly.Start != 29 || anomaly.End != 36 {
		t.Errorf("token = %+v, want 'anomaly' at 29..36", anomaly)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if tokens := Tokenize(""); len(tokens) != 0 {
		t.Errorf("token count = %d, want 0", len(tokens))
	}

	if tokens := Tokenize("   \n\t"); len(tokens) != 0 {
		t.Errorf("whitespace token count = %d, want 0", len(tokens))
	}
}

func TestSegment(t *testing.T) {
	text := "No fever today. Cough persists."
	tokens, sents := Segment(text)

	if len(sents) != 2 {
		t.Fatalf("sentence count = %d, want 2", len(sents))
	}

	first := sents[0]
	if first.Start != 0 {
		t.Errorf("first sentence Start = %d, want 0", first.Start)
	}

	// "No fever today ." is four tokens.
	if first.End != 4 {
		t.Errorf("first sentence End = %d, want 4", first.End)
	}

	second := sents[1]
	if second.Start != 4 || second.End != len(tokens) {
		t.Errorf("second sentence = %d..%d, want 4..%d", second.Start, second.End, len(tokens))
	}

	if text[second.StartChar:second.EndChar] != "Cough persists." {
		t.Errorf("second sentence text = %q", text[second.StartChar:second.EndChar])
	}
}

func TestSegment_SingleSentence(t *testing.T) {
	tokens, sents := Segment("The patient shows no sign of anomaly.")

	if len(sents) != 1 {
		t.Fatalf("sentence count = %d, want 1", len(sents))
	}

	if sents[0].Start != 0 || sents[0].End != len(tokens) {
		t.Errorf("sentence spans tokens %d..%d, want 0..%d", sents[0].Start, sents[0].End, len(tokens))
	}
}

func TestSegment_Empty(t *testing.T) {
	tokens, sents := Segment("")

	if len(tokens) != 0 || len(sents) != 0 {
		t.Errorf("got %d tokens, %d sentences, want none", len(tokens), len(sents))
	}
}
