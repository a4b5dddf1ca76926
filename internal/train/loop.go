package train

import (
	"errors"
	"fmt"
	"path/filepath"

	"clinlp/internal/brat"
	"clinlp/internal/config"
	"clinlp/internal/corpus"
	"clinlp/internal/logger"
	"clinlp/internal/models"
	"clinlp/internal/optim"
	"clinlp/internal/pipeline"
)

// ErrTrainingFatal wraps any error that aborts the training loop.
var ErrTrainingFatal = errors.New("training failed")

// CheckpointDir is the subdirectory of the output path holding the most
// recent model checkpoint. It is overwritten at every validation event.
const CheckpointDir = "last-model"

// Validation records one validation event: the step it fired at, the
// average training loss since the previous event, and the metric scores.
type Validation struct {
	Step   int
	Loss   float64
	Scores map[string]map[string]float64
}

// Result summarizes a completed training run.
type Result struct {
	Steps          int
	Validations    []Validation
	LastScores     map[string]map[string]float64
	CheckpointPath string
}

// Train runs the full optimization loop described by cfg against pipe:
// it loads and adapts the corpora, initializes the trainable components,
// then steps the optimizer over length-sorted batches, scoring the
// validation set and overwriting the checkpoint at every validation
// interval and at the final step. The returned result holds the scores of
// a final validation pass run on a pipeline reloaded from disk.
func Train(cfg *config.Config, pipe *pipeline.Pipeline, log *logger.Logger) (*Result, error) {
	trainDocs, valDocs, err := loadCorpora(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	adapter := corpus.NewAdapter(cfg.Corpus.TargetLabels, cfg.Training.Seed)

	examples, err := adapter.Examples(trainDocs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	for _, doc := range valDocs {
		if err := adapter.Annotate(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
		}
	}

	log.Info("corpus adapted",
		"train_examples", len(examples),
		"val_docs", len(valDocs))

	trainables := pipe.Trainables()
	if len(trainables) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, pipeline.ErrNoTrainable)
	}

	optimizer, err := initTrainables(cfg, trainables, examples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	sampler, err := NewLengthSortedSampler(examples,
		cfg.Training.BatchSize, *cfg.Training.Noise, *cfg.Training.DropLast,
		cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	scorer, err := NewScorer(cfg.Training.Scorer.Metrics)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	checkpoint := filepath.Join(cfg.Training.OutputPath, CheckpointDir)
	result := &Result{CheckpointPath: checkpoint}

	runningLoss := 0.0
	lossSteps := 0

	// Validation fires before the step when the index hits the interval,
	// and once more at the final step: interval 5 over 10 steps gives
	// events at 0, 5 and 10.
	for step := 0; step <= cfg.Training.MaxSteps; step++ {
		if step%cfg.Training.ValidationInterval == 0 || step == cfg.Training.MaxSteps {
			scores, err := scorer.Score(pipe, valDocs)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d: %v", ErrTrainingFatal, step, err)
			}

			if err := pipe.SaveTo(checkpoint); err != nil {
				return nil, fmt.Errorf("%w: step %d: %v", ErrTrainingFatal, step, err)
			}

			avgLoss := 0.0
			if lossSteps > 0 {
				avgLoss = runningLoss / float64(lossSteps)
			}

			result.Validations = append(result.Validations, Validation{
				Step:   step,
				Loss:   avgLoss,
				Scores: scores,
			})

			log.Info("validation",
				"step", step,
				"loss", avgLoss,
				"wps", scores["speed"]["wps"],
				"lr", optimizer.CurrentLR())

			runningLoss = 0
			lossSteps = 0
		}

		if step == cfg.Training.MaxSteps {
			break
		}

		batch := sampler.Next()

		loss, err := forwardBatch(trainables, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrTrainingFatal, step, err)
		}

		if err := optimizer.Step(); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrTrainingFatal, step, err)
		}

		optimizer.ZeroGrad()

		runningLoss += loss
		lossSteps++
		result.Steps = step + 1
	}

	// Reload from disk so the reported scores reflect exactly what the
	// checkpoint contains.
	reloaded, err := pipeline.Load(checkpoint, pipeline.DefaultRegistry())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	scores, err := scorer.Score(reloaded, valDocs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFatal, err)
	}

	result.LastScores = scores

	log.Info("training complete",
		"steps", result.Steps,
		"validations", len(result.Validations),
		"checkpoint", checkpoint)

	return result, nil
}

func loadCorpora(cfg *config.Config, log *logger.Logger) ([]*models.Document, []*models.Document, error) {
	trainDocs, err := brat.ReadCorpus(cfg.Corpus.TrainPath)
	if err != nil {
		return nil, nil, err
	}

	valDocs, err := brat.ReadCorpus(cfg.Corpus.ValPath)
	if err != nil {
		return nil, nil, err
	}

	// An empty validation set would make every score trivially zero, so
	// refuse it up front rather than completing a meaningless run.
	if len(valDocs) == 0 {
		return nil, nil, fmt.Errorf("%w: validation corpus %s has no documents",
			corpus.ErrEmptyCorpus, cfg.Corpus.ValPath)
	}

	if limit := cfg.Corpus.Limit; limit > 0 && limit < len(trainDocs) {
		trainDocs = trainDocs[:limit]
	}

	log.Info("corpus loaded",
		"train_docs", len(trainDocs),
		"val_docs", len(valDocs))

	return trainDocs, valDocs, nil
}

func initTrainables(cfg *config.Config, trainables []pipeline.Trainable, examples []*models.Example) (*optim.ScheduledOptimizer, error) {
	var groups []*optim.ParamGroup

	for _, trainable := range trainables {
		if err := trainable.PostInit(examples, cfg.Training.Seed); err != nil {
			return nil, err
		}

		groups = append(groups, trainable.ParamGroups(
			cfg.Training.LR,
			*cfg.Training.Momentum,
			cfg.Training.MaxSteps,
			*cfg.Training.WarmupRate)...)
	}

	return optim.NewScheduledOptimizer(groups...)
}

func forwardBatch(trainables []pipeline.Trainable, batch models.Batch) (float64, error) {
	total := 0.0

	for _, trainable := range trainables {
		loss, _, err := trainable.Forward(batch)
		if err != nil {
			return 0, err
		}

		total += loss
	}

	return total, nil
}
