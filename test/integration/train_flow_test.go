package integration

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"clinlp/internal/config"
	"clinlp/internal/logger"
	"clinlp/internal/pipeline"
	"clinlp/internal/train"
	"clinlp/pkg/metadata"
)

func trainingConfig(t *testing.T) *config.Config {
	t.Helper()

	corpusDir := filepath.Join("..", "fixtures", "corpus")
	noise := 1
	dropLast := true
	warmupRate := 0.5
	momentum := 0.9

	cfg := &config.Config{
		Training: config.TrainingConfig{
			OutputPath:         t.TempDir(),
			Seed:               42,
			MaxSteps:           10,
			BatchSize:          2,
			LR:                 0.01,
			ValidationInterval: 5,
			Device:             "cpu",
			Noise:              &noise,
			DropLast:           &dropLast,
			WarmupRate:         &warmupRate,
			Momentum:           &momentum,
			Scorer:             config.ScorerConfig{Metrics: []string{"ner"}},
		},
		Corpus: config.CorpusConfig{
			TrainPath:    corpusDir,
			ValPath:      corpusDir,
			TargetLabels: []string{"sosy"},
		},
		Pipeline: config.PipelineConfig{
			Components: []string{"ner", "negation", "hypothesis", "history"},
			NER: config.NERConfig{
				Labels:     []string{"sosy"},
				FeatureDim: 1 << 12,
			},
		},
		Logging: config.LoggingConfig{Level: "error"},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Training config is invalid: %v", err)
	}

	return cfg
}

func TestTrainFlow(t *testing.T) {
	cfg := trainingConfig(t)

	pipe, err := pipeline.New(&cfg.Pipeline, pipeline.DefaultRegistry())
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}

	result, err := train.Train(cfg, pipe, logger.NewLoggerTo(io.Discard, "error"))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// Exactly three validation events for max_steps=10, interval=5.
	if len(result.Validations) != 3 {
		t.Fatalf("Expected 3 validation events, got %d", len(result.Validations))
	}

	// The checkpoint directory exists, is signed and is loadable.
	if _, err := os.Stat(result.CheckpointPath); err != nil {
		t.Fatalf("Checkpoint directory missing: %v", err)
	}

	if err := metadata.Verify(result.CheckpointPath); err != nil {
		t.Errorf("Checkpoint manifest verification failed: %v", err)
	}

	restored, err := pipeline.Load(result.CheckpointPath, pipeline.DefaultRegistry())
	if err != nil {
		t.Fatalf("Loading the checkpoint failed: %v", err)
	}

	if len(restored.Components()) != 4 {
		t.Errorf("Expected 4 restored components, got %d", len(restored.Components()))
	}

	// The final scores come from the reloaded pipeline.
	if result.LastScores == nil || result.LastScores["ner"] == nil {
		t.Error("Expected final scores from the reloaded checkpoint")
	}
}
