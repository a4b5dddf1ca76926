// Package train drives the optimization loop: length-sorted batch
// sampling, scoring against gold annotations, and the step loop with
// periodic validation and checkpointing.
package train

import (
	"errors"
	"math/rand"
	"sort"

	"clinlp/internal/models"
)

// Sampler errors.
var (
	ErrEmptyDataset  = errors.New("sampler dataset is empty")
	ErrBatchTooLarge = errors.New("batch size exceeds dataset size with drop_last")
)

// LengthSortedSampler yields batches of examples grouped by similar word
// counts. Lengths are perturbed with uniform noise before sorting so that
// batch composition varies between passes, and the resulting batches are
// shuffled through a small buffer before being emitted. The sampler is an
// endless iterator: when a pass over the dataset is exhausted the next
// call transparently starts a new one.
type LengthSortedSampler struct {
	examples  []*models.Example
	batchSize int
	noise     int
	dropLast  bool
	rng       *rand.Rand

	pending []models.Batch
}

// NewLengthSortedSampler validates the dataset against the batch size and
// returns a ready sampler. With dropLast set, a dataset smaller than one
// batch can never emit anything and is rejected.
func NewLengthSortedSampler(examples []*models.Example, batchSize, noise int, dropLast bool, seed int64) (*LengthSortedSampler, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyDataset
	}

	if dropLast && len(examples) < batchSize {
		return nil, ErrBatchTooLarge
	}

	return &LengthSortedSampler{
		examples:  examples,
		batchSize: batchSize,
		noise:     noise,
		dropLast:  dropLast,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Next returns the next batch, refilling from a fresh pass over the
// dataset when the current one is exhausted.
func (s *LengthSortedSampler) Next() models.Batch {
	if len(s.pending) == 0 {
		s.pending = s.makePass()
	}

	batch := s.pending[0]
	s.pending = s.pending[1:]

	return batch
}

// BatchesPerPass reports how many batches one full pass emits.
func (s *LengthSortedSampler) BatchesPerPass() int {
	if s.dropLast {
		return len(s.examples) / s.batchSize
	}

	return (len(s.examples) + s.batchSize - 1) / s.batchSize
}

func (s *LengthSortedSampler) makePass() []models.Batch {
	type measured struct {
		example *models.Example
		length  int
	}

	items := make([]measured, len(s.examples))

	for i, example := range s.examples {
		length := example.WordCount()
		if s.noise > 0 {
			length += s.rng.Intn(2*s.noise+1) - s.noise
		}

		items[i] = measured{example: example, length: length}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].length < items[j].length
	})

	var batches []models.Batch

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			if s.dropLast {
				break
			}

			end = len(items)
		}

		batch := make(models.Batch, 0, end-start)
		for _, item := range items[start:end] {
			batch = append(batch, item.example)
		}

		batches = append(batches, batch)
	}

	// Shuffle through a buffer sized to one pass so that short batches do
	// not always lead.
	s.rng.Shuffle(len(batches), func(i, j int) {
		batches[i], batches[j] = batches[j], batches[i]
	})

	return batches
}
