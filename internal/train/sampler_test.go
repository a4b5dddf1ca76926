package train

import (
	"errors"
	"fmt"
	"testing"

	"clinlp/internal/models"
)

func makeExamples(lengths ...int) []*models.Example {
	examples := make([]*models.Example, len(lengths))

	for i, length := range lengths {
		words := make([]string, length)
		for j := range words {
			words[j] = "w"
		}

		examples[i] = &models.Example{
			NoteID: fmt.Sprintf("note%d", i),
			Words:  words,
		}
	}

	return examples
}

func TestNewLengthSortedSampler_Validation(t *testing.T) {
	if _, err := NewLengthSortedSampler(nil, 2, 1, true, 42); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("empty dataset: error = %v, want ErrEmptyDataset", err)
	}

	_, err := NewLengthSortedSampler(makeExamples(3), 2, 1, true, 42)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("undersized dataset: error = %v, want ErrBatchTooLarge", err)
	}

	// Without drop_last the same dataset is fine.
	if _, err := NewLengthSortedSampler(makeExamples(3), 2, 1, false, 42); err != nil {
		t.Errorf("without drop_last: unexpected error %v", err)
	}
}

func TestLengthSortedSampler_BatchesPerPass(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		batch    int
		dropLast bool
		want     int
	}{
		{name: "exact split", count: 8, batch: 2, dropLast: true, want: 4},
		{name: "drop last partial", count: 9, batch: 2, dropLast: true, want: 4},
		{name: "keep last partial", count: 9, batch: 2, dropLast: false, want: 5},
		{name: "single batch", count: 2, batch: 2, dropLast: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lengths := make([]int, tt.count)
			for i := range lengths {
				lengths[i] = i + 1
			}

			sampler, err := NewLengthSortedSampler(makeExamples(lengths...), tt.batch, 1, tt.dropLast, 42)
			if err != nil {
				t.Fatalf("NewLengthSortedSampler returned unexpected error: %v", err)
			}

			if got := sampler.BatchesPerPass(); got != tt.want {
				t.Errorf("BatchesPerPass = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLengthSortedSampler_BatchShape(t *testing.T) {
	sampler, err := NewLengthSortedSampler(makeExamples(5, 1, 9, 3, 7, 2), 2, 0, true, 42)
	if err != nil {
		t.Fatalf("NewLengthSortedSampler returned unexpected error: %v", err)
	}

	seen := make(map[string]int)

	for i := 0; i < sampler.BatchesPerPass(); i++ {
		batch := sampler.Next()
		if len(batch) != 2 {
			t.Errorf("batch %d size = %d, want 2", i, len(batch))
		}

		for _, example := range batch {
			seen[example.NoteID]++
		}
	}

	// One full pass visits every example exactly once.
	if len(seen) != 6 {
		t.Errorf("distinct examples = %d, want 6", len(seen))
	}

	for id, count := range seen {
		if count != 1 {
			t.Errorf("example %s sampled %d times in one pass", id, count)
		}
	}
}

func TestLengthSortedSampler_GroupsSimilarLengths(t *testing.T) {
	// Without noise the sort is exact: each batch holds neighbors in
	// length order.
	sampler, err := NewLengthSortedSampler(makeExamples(10, 1, 11, 2), 2, 0, true, 42)
	if err != nil {
		t.Fatalf("NewLengthSortedSampler returned unexpected error: %v", err)
	}

	for i := 0; i < sampler.BatchesPerPass(); i++ {
		batch := sampler.Next()

		short := batch[0].WordCount() <= 3 && batch[1].WordCount() <= 3
		long := batch[0].WordCount() >= 10 && batch[1].WordCount() >= 10

		if !short && !long {
			t.Errorf("batch mixes length groups: %d and %d words",
				batch[0].WordCount(), batch[1].WordCount())
		}
	}
}

func TestLengthSortedSampler_RestartsAcrossPasses(t *testing.T) {
	sampler, err := NewLengthSortedSampler(makeExamples(1, 2, 3, 4), 2, 1, true, 42)
	if err != nil {
		t.Fatalf("NewLengthSortedSampler returned unexpected error: %v", err)
	}

	// Three passes worth of batches without exhaustion.
	for i := 0; i < 3*sampler.BatchesPerPass(); i++ {
		if batch := sampler.Next(); len(batch) != 2 {
			t.Fatalf("call %d: batch size = %d, want 2", i, len(batch))
		}
	}
}

func TestLengthSortedSampler_Deterministic(t *testing.T) {
	run := func() []string {
		sampler, err := NewLengthSortedSampler(makeExamples(5, 1, 9, 3, 7, 2), 2, 1, true, 7)
		if err != nil {
			t.Fatalf("NewLengthSortedSampler returned unexpected error: %v", err)
		}

		var ids []string

		for i := 0; i < 2*sampler.BatchesPerPass(); i++ {
			for _, example := range sampler.Next() {
				ids = append(ids, example.NoteID)
			}
		}

		return ids
	}

	first := run()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("identically seeded samplers diverge at position %d", i)
		}
	}
}
