// Package ner implements the trainable named-entity recognizer: a
// log-linear BIO tagger over hashed lexical token features, optimized with
// scheduled gradient descent.
package ner

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"unicode"

	"clinlp/internal/models"
	"clinlp/internal/optim"
	"clinlp/pkg/textutil"
)

// ModelFile is the serialized model inside a checkpoint directory.
const ModelFile = "ner.json"

const (
	outsideTag  = "O"
	startMarker = "_START_"
	endMarker   = "_END_"
)

// Model errors.
var (
	ErrNotInitialized = errors.New("model is not initialized; call PostInit first")
	ErrNoLabels       = errors.New("no entity labels found in initialization data")
	ErrUnsegmented    = errors.New("document has no sentence segmentation")
)

// Model is the trainable NER component.
type Model struct {
	labels   []string
	tags     []string
	tagIndex map[string]int
	dim      int
	weights  *optim.Param
	bias     *optim.Param
}

// New creates an untrained model. Labels may be empty; PostInit then
// derives them from the initialization data.
func New(labels []string, featureDim int) *Model {
	return &Model{
		labels: append([]string(nil), labels...),
		dim:    featureDim,
	}
}

// Name returns the component name.
func (m *Model) Name() string {
	return "ner"
}

// PostInit sizes and initializes the parameters from an initialization
// subset of training examples. The label space comes from the configured
// labels, falling back to the labels observed in the subset.
func (m *Model) PostInit(examples []*models.Example, seed int64) error {
	if len(m.labels) == 0 {
		seen := make(map[string]bool)

		for _, example := range examples {
			for label := range example.Spans {
				seen[label] = true
			}
		}

		for label := range seen {
			m.labels = append(m.labels, label)
		}

		sort.Strings(m.labels)
	}

	if len(m.labels) == 0 {
		return ErrNoLabels
	}

	m.buildTagset()

	m.weights = optim.NewParam("ner.weights", len(m.tags)*m.dim)
	m.bias = optim.NewParam("ner.bias", len(m.tags))

	rng := rand.New(rand.NewSource(seed))
	for i := range m.weights.Data {
		m.weights.Data[i] = (rng.Float64() - 0.5) * 0.01
	}

	return nil
}

func (m *Model) buildTagset() {
	m.tags = []string{outsideTag}
	for _, label := range m.labels {
		m.tags = append(m.tags, "B-"+label, "I-"+label)
	}

	m.tagIndex = make(map[string]int, len(m.tags))
	for i, tag := range m.tags {
		m.tagIndex[tag] = i
	}
}

// Forward computes the batch loss, accumulates gradients on the model
// parameters and returns the predicted spans per example.
func (m *Model) Forward(batch models.Batch) (float64, [][]models.TokenSpan, error) {
	if m.weights == nil {
		return 0, nil, ErrNotInitialized
	}

	var loss float64

	preds := make([][]models.TokenSpan, 0, len(batch))

	for _, example := range batch {
		gold := m.goldTags(example)
		if len(gold) != len(example.Words) {
			return 0, nil, fmt.Errorf("shape mismatch: %d gold tags for %d words", len(gold), len(example.Words))
		}

		tags := make([]string, len(example.Words))

		for i := range example.Words {
			feats := m.features(example.Words, i)
			probs := m.softmax(feats)

			goldIdx, ok := m.tagIndex[gold[i]]
			if !ok {
				return 0, nil, fmt.Errorf("shape mismatch: tag %q not in model tagset", gold[i])
			}

			loss -= math.Log(math.Max(probs[goldIdx], 1e-12))

			// Cross-entropy gradient: p - 1 at the gold tag, p elsewhere.
			for t := range m.tags {
				g := probs[t]
				if t == goldIdx {
					g -= 1
				}

				for _, f := range feats {
					m.weights.Grad[t*m.dim+int(f)] += g
				}

				m.bias.Grad[t] += g
			}

			tags[i] = m.tags[argmax(probs)]
		}

		preds = append(preds, decodeBIO(tags))
	}

	return loss, preds, nil
}

// Predict tags one word sequence without touching gradients.
func (m *Model) Predict(words []string) ([]models.TokenSpan, error) {
	if m.weights == nil {
		return nil, ErrNotInitialized
	}

	tags := make([]string, len(words))

	for i := range words {
		probs := m.softmax(m.features(words, i))
		tags[i] = m.tags[argmax(probs)]
	}

	return decodeBIO(tags), nil
}

// Process predicts entity spans for a segmented document, populating Ents
// and the per-label span groups.
func (m *Model) Process(doc *models.Document) error {
	if len(doc.Tokens) > 0 && len(doc.Sents) == 0 {
		return ErrUnsegmented
	}

	if doc.Spans == nil {
		doc.Spans = make(map[string][]*models.Span)
	}

	for _, sent := range doc.Sents {
		words := make([]string, 0, sent.End-sent.Start)
		for _, token := range doc.Tokens[sent.Start:sent.End] {
			words = append(words, token.Text)
		}

		spans, err := m.Predict(words)
		if err != nil {
			return err
		}

		for _, ts := range spans {
			start := sent.Start + ts.Start
			end := sent.Start + ts.End

			span := &models.Span{
				Label:     ts.Label,
				Start:     start,
				End:       end,
				StartChar: doc.Tokens[start].Start,
				EndChar:   doc.Tokens[end-1].End,
			}
			span.Text = doc.Text[span.StartChar:span.EndChar]

			doc.Ents = append(doc.Ents, span)
			doc.Spans[span.Label] = append(doc.Spans[span.Label], span)
		}
	}

	return nil
}

// ParamGroups exposes the trainable parameters: weights with a warmup/decay
// schedule on both learning rate and momentum, bias with constant values.
func (m *Model) ParamGroups(lr, momentum float64, totalSteps int, warmupRate float64) []*optim.ParamGroup {
	return []*optim.ParamGroup{
		{
			Params:   []*optim.Param{m.weights},
			LR:       lr,
			Momentum: momentum,
			Schedules: []optim.LinearSchedule{
				{
					TotalSteps: totalSteps,
					WarmupRate: warmupRate,
					StartValue: 0,
					MaxValue:   lr,
					Path:       optim.PathLR,
				},
				{
					TotalSteps: totalSteps,
					WarmupRate: warmupRate,
					StartValue: momentum,
					MaxValue:   momentum,
					Path:       optim.PathMomentum,
				},
			},
		},
		{
			Params:   []*optim.Param{m.bias},
			LR:       lr,
			Momentum: momentum,
		},
	}
}

// goldTags converts the example's span groups into a BIO tag sequence.
// Only labels known to the model are tagged.
func (m *Model) goldTags(example *models.Example) []string {
	tags := make([]string, len(example.Words))
	for i := range tags {
		tags[i] = outsideTag
	}

	for _, label := range m.labels {
		for _, span := range example.Spans[label] {
			if span.Start < 0 || span.End > len(tags) || span.Start >= span.End {
				continue
			}

			tags[span.Start] = "B-" + label
			for i := span.Start + 1; i < span.End; i++ {
				tags[i] = "I-" + label
			}
		}
	}

	return tags
}

// features hashes the lexical context of one token position into feature
// buckets.
func (m *Model) features(words []string, i int) []uint32 {
	word := textutil.Fold(words[i])

	prev := startMarker
	if i > 0 {
		prev = textutil.Fold(words[i-1])
	}

	next := endMarker
	if i+1 < len(words) {
		next = textutil.Fold(words[i+1])
	}

	suffix := word
	if len(word) > 3 {
		suffix = word[len(word)-3:]
	}

	raw := []string{
		"w=" + word,
		"prev=" + prev,
		"next=" + next,
		"suf3=" + suffix,
		"shape=" + wordShape(words[i]),
	}

	feats := make([]uint32, 0, len(raw))
	for _, f := range raw {
		feats = append(feats, hashFeature(f)%uint32(m.dim))
	}

	return feats
}

func hashFeature(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))

	return h.Sum32()
}

// wordShape collapses a token into a coarse shape class.
func wordShape(word string) string {
	hasUpper := false
	hasDigit := false

	for _, r := range word {
		if unicode.IsUpper(r) {
			hasUpper = true
		}

		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}

	switch {
	case hasDigit:
		return "d"
	case hasUpper:
		return "Xx"
	default:
		return "x"
	}
}

func (m *Model) softmax(feats []uint32) []float64 {
	scores := make([]float64, len(m.tags))

	for t := range m.tags {
		score := m.bias.Data[t]
		for _, f := range feats {
			score += m.weights.Data[t*m.dim+int(f)]
		}

		scores[t] = score
	}

	maxScore := scores[argmax(scores)]

	var sum float64

	for t := range scores {
		scores[t] = math.Exp(scores[t] - maxScore)
		sum += scores[t]
	}

	for t := range scores {
		scores[t] /= sum
	}

	return scores
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}

	return best
}

// decodeBIO turns a tag sequence into labeled spans.
func decodeBIO(tags []string) []models.TokenSpan {
	var spans []models.TokenSpan

	var open *models.TokenSpan

	flush := func(end int) {
		if open != nil {
			open.End = end
			spans = append(spans, *open)
			open = nil
		}
	}

	for i, tag := range tags {
		switch {
		case tag == outsideTag:
			flush(i)
		case tag[0] == 'B':
			flush(i)

			open = &models.TokenSpan{Label: tag[2:], Start: i}
		case tag[0] == 'I':
			if open == nil || open.Label != tag[2:] {
				flush(i)

				open = &models.TokenSpan{Label: tag[2:], Start: i}
			}
		}
	}

	flush(len(tags))

	return spans
}

// modelFile is the on-disk serialization of the model.
type modelFile struct {
	Labels     []string  `json:"labels"`
	FeatureDim int       `json:"featureDim"`
	Weights    []float64 `json:"weights"`
	Bias       []float64 `json:"bias"`
}

// SaveTo writes the model parameters into a checkpoint directory.
func (m *Model) SaveTo(dir string) error {
	if m.weights == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(modelFile{
		Labels:     m.labels,
		FeatureDim: m.dim,
		Weights:    m.weights.Data,
		Bias:       m.bias.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ModelFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}

	return nil
}

// LoadFrom restores the model parameters from a checkpoint directory.
func (m *Model) LoadFrom(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, ModelFile))
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse model: %w", err)
	}

	m.labels = file.Labels
	m.dim = file.FeatureDim
	m.buildTagset()

	m.weights = &optim.Param{Name: "ner.weights", Data: file.Weights}
	m.bias = &optim.Param{Name: "ner.bias", Data: file.Bias}
	m.weights.EnsureGrad()
	m.bias.EnsureGrad()

	return nil
}
