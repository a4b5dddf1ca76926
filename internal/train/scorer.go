package train

import (
	"errors"
	"fmt"
	"time"

	"clinlp/internal/models"
)

// Scorer errors.
var ErrUnknownMetric = errors.New("unknown scorer metric")

// Annotator predicts annotations on documents in place.
type Annotator interface {
	Process(doc *models.Document) error
}

// Metric compares predicted documents against gold documents and returns
// named scores.
type Metric func(gold, pred []*models.Document) map[string]float64

// Metrics maps metric names to their implementations.
var Metrics = map[string]Metric{
	"ner": scoreEnts,
}

// Scorer runs an annotator over copies of gold documents, timing only the
// prediction pass, and reports the configured metrics plus throughput.
type Scorer struct {
	metrics map[string]Metric
	now     func() time.Time
}

// NewScorer resolves metric names against the registry.
func NewScorer(names []string) (*Scorer, error) {
	metrics := make(map[string]Metric, len(names))

	for _, name := range names {
		metric, ok := Metrics[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
		}

		metrics[name] = metric
	}

	return &Scorer{metrics: metrics, now: time.Now}, nil
}

// Score copies the gold documents, strips their entities, runs the
// annotator over the copies and returns metric scores keyed by metric
// name, plus a "speed" entry with words and documents per second.
func (s *Scorer) Score(annotator Annotator, gold []*models.Document) (map[string]map[string]float64, error) {
	pred := make([]*models.Document, len(gold))

	for i, doc := range gold {
		copied := doc.Copy()
		copied.ClearEnts()
		pred[i] = copied
	}

	words := 0
	start := s.now()

	for _, doc := range pred {
		if err := annotator.Process(doc); err != nil {
			return nil, fmt.Errorf("scoring %s: %w", doc.ID, err)
		}

		words += doc.WordCount()
	}

	secs := s.now().Sub(start).Seconds()
	if secs < 1e-9 {
		secs = 1e-9
	}

	scores := make(map[string]map[string]float64, len(s.metrics)+1)

	for name, metric := range s.metrics {
		scores[name] = metric(gold, pred)
	}

	scores["speed"] = map[string]float64{
		"wps": float64(words) / secs,
		"dps": float64(len(pred)) / secs,
	}

	return scores, nil
}

type entKey struct {
	doc   int
	label string
	start int
	end   int
}

func scoreEnts(gold, pred []*models.Document) map[string]float64 {
	goldSet := make(map[entKey]bool)
	predSet := make(map[entKey]bool)

	for i, doc := range gold {
		for _, span := range doc.Ents {
			goldSet[entKey{i, span.Label, span.StartChar, span.EndChar}] = true
		}
	}

	for i, doc := range pred {
		for _, span := range doc.Ents {
			predSet[entKey{i, span.Label, span.StartChar, span.EndChar}] = true
		}
	}

	hits := 0

	for key := range predSet {
		if goldSet[key] {
			hits++
		}
	}

	precision := 0.0
	if len(predSet) > 0 {
		precision = float64(hits) / float64(len(predSet))
	}

	recall := 0.0
	if len(goldSet) > 0 {
		recall = float64(hits) / float64(len(goldSet))
	}

	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return map[string]float64{
		"ents_p": precision,
		"ents_r": recall,
		"ents_f": f1,
	}
}
