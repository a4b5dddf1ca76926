package pipeline

import (
	"clinlp/internal/config"
	"clinlp/internal/models"
)

// NewNegation creates the negation detector: entity spans preceded or
// followed by an active negation cue get Negated set.
func NewNegation(cfg config.CueConfig) Component {
	return &qualifier{
		name:      "negation",
		pseudo:    newCueMatcher(fallback(cfg.Pseudo, negationPseudo)),
		preceding: newCueMatcher(fallback(cfg.Preceding, negationPreceding)),
		following: newCueMatcher(fallback(cfg.Following, negationFollowing)),
		apply:     func(span *models.Span) { span.Negated = true },
	}
}

// NewHypothesis creates the hypothesis detector. Hypothesis verbs act as
// additional preceding cues; a confirmation cue suppresses the attribute
// for its sentence.
func NewHypothesis(cfg config.HypoCueConfig) Component {
	preceding := append(
		append([]string(nil), fallback(cfg.Preceding, hypothesisPreceding)...),
		fallback(cfg.Verbs, hypothesisVerbs)...,
	)

	return &qualifier{
		name:      "hypothesis",
		pseudo:    newCueMatcher(fallback(cfg.Pseudo, hypothesisPseudo)),
		preceding: newCueMatcher(preceding),
		following: newCueMatcher(fallback(cfg.Following, hypothesisFollowing)),
		blocking:  newCueMatcher(fallback(cfg.Confirmation, hypothesisConfirmation)),
		apply:     func(span *models.Span) { span.Hypothesis = true },
	}
}

// NewHistory creates the antecedent detector: spans qualified by a history
// cue get History set.
func NewHistory(cfg config.CueConfig) Component {
	return &qualifier{
		name:      "history",
		pseudo:    newCueMatcher(fallback(cfg.Pseudo, historyPseudo)),
		preceding: newCueMatcher(fallback(cfg.Preceding, historyPreceding)),
		following: newCueMatcher(fallback(cfg.Following, historyFollowing)),
		apply:     func(span *models.Span) { span.History = true },
	}
}
