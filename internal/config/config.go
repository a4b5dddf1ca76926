// Package config provides configuration management for the training toolkit.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Training defaults.
const (
	DefaultMaxSteps           = 1000
	DefaultBatchSize          = 4
	DefaultLR                 = 8e-5
	DefaultValidationInterval = 10
	DefaultDevice             = "cpu"
	DefaultFeatureDim         = 1 << 15
)

// Configuration validation errors.
var (
	ErrMissingOutputPath    = errors.New("training.output_path is required")
	ErrInvalidMaxSteps      = errors.New("training.max_steps must be at least 1")
	ErrInvalidBatchSize     = errors.New("training.batch_size must be at least 1")
	ErrInvalidLR            = errors.New("training.lr must be positive")
	ErrInvalidInterval      = errors.New("training.validation_interval must be at least 1")
	ErrUnsupportedDevice    = errors.New("training.device must be 'cpu'")
	ErrNoScorerMetrics      = errors.New("training.scorer must name at least one metric")
	ErrMissingTrainPath     = errors.New("corpus.train_path is required")
	ErrMissingValPath       = errors.New("corpus.val_path is required")
	ErrNoTargetLabels       = errors.New("corpus.target_labels must name at least one label")
	ErrInvalidLimit         = errors.New("corpus.limit must be non-negative")
	ErrNoComponents         = errors.New("pipeline.components must name at least one component")
	ErrInvalidFeatureDim    = errors.New("pipeline.ner.feature_dim must be positive")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidNoise         = errors.New("training.noise must be non-negative")
	ErrInvalidWarmupRate    = errors.New("training.warmup_rate must be within [0, 1]")
	ErrInvalidInitMomentum  = errors.New("training.momentum must be within [0, 1)")
)

// Config represents the complete toolkit configuration.
type Config struct {
	Training TrainingConfig `yaml:"training"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TrainingConfig contains the optimization settings.
type TrainingConfig struct {
	OutputPath         string       `yaml:"output_path"`
	Seed               int64        `yaml:"seed"`
	MaxSteps           int          `yaml:"max_steps"`
	BatchSize          int          `yaml:"batch_size"`
	LR                 float64      `yaml:"lr"`
	ValidationInterval int          `yaml:"validation_interval"`
	Device             string       `yaml:"device"`
	Noise              *int         `yaml:"noise"`
	DropLast           *bool        `yaml:"drop_last"`
	WarmupRate         *float64     `yaml:"warmup_rate"`
	Momentum           *float64     `yaml:"momentum"`
	Scorer             ScorerConfig `yaml:"scorer"`
}

// ScorerConfig names the metric evaluators run at each validation interval.
type ScorerConfig struct {
	Metrics []string `yaml:"metrics"`
}

// CorpusConfig locates the annotated corpora and the target label set.
type CorpusConfig struct {
	TrainPath    string   `yaml:"train_path"`
	ValPath      string   `yaml:"val_path"`
	TargetLabels []string `yaml:"target_labels"`
	Limit        int      `yaml:"limit"`
}

// PipelineConfig declares the ordered pipeline components and their options.
type PipelineConfig struct {
	Components []string      `yaml:"components"`
	NER        NERConfig     `yaml:"ner"`
	Negation   CueConfig     `yaml:"negation"`
	Hypothesis HypoCueConfig `yaml:"hypothesis"`
	History    CueConfig     `yaml:"history"`
}

// NERConfig configures the trainable named-entity recognizer.
type NERConfig struct {
	Labels     []string `yaml:"labels"`
	FeatureDim int      `yaml:"feature_dim"`
}

// CueConfig overrides the cue term lists of a rule-based component.
// Empty lists fall back to the component defaults.
type CueConfig struct {
	Pseudo    []string `yaml:"pseudo"`
	Preceding []string `yaml:"preceding"`
	Following []string `yaml:"following"`
}

// HypoCueConfig extends CueConfig with confirmation cues and hypothesis verbs.
type HypoCueConfig struct {
	Pseudo       []string `yaml:"pseudo"`
	Confirmation []string `yaml:"confirmation"`
	Preceding    []string `yaml:"preceding"`
	Following    []string `yaml:"following"`
	Verbs        []string `yaml:"verbs"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills in default values for absent options.
func (c *Config) ApplyDefaults() {
	if c.Training.MaxSteps == 0 {
		c.Training.MaxSteps = DefaultMaxSteps
	}

	if c.Training.BatchSize == 0 {
		c.Training.BatchSize = DefaultBatchSize
	}

	if c.Training.LR == 0 {
		c.Training.LR = DefaultLR
	}

	if c.Training.ValidationInterval == 0 {
		c.Training.ValidationInterval = DefaultValidationInterval
	}

	if c.Training.Device == "" {
		c.Training.Device = DefaultDevice
	}

	if c.Training.DropLast == nil {
		dropLast := true
		c.Training.DropLast = &dropLast
	}

	if c.Training.Noise == nil {
		noise := 1
		c.Training.Noise = &noise
	}

	if c.Training.WarmupRate == nil {
		warmupRate := 0.5
		c.Training.WarmupRate = &warmupRate
	}

	if c.Training.Momentum == nil {
		momentum := 0.9
		c.Training.Momentum = &momentum
	}

	if len(c.Training.Scorer.Metrics) == 0 {
		c.Training.Scorer.Metrics = []string{"ner"}
	}

	if len(c.Pipeline.Components) == 0 {
		c.Pipeline.Components = []string{"ner", "negation", "hypothesis", "history"}
	}

	if c.Pipeline.NER.FeatureDim == 0 {
		c.Pipeline.NER.FeatureDim = DefaultFeatureDim
	}

	if len(c.Pipeline.NER.Labels) == 0 {
		c.Pipeline.NER.Labels = c.Corpus.TargetLabels
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Training.OutputPath == "" {
		return ErrMissingOutputPath
	}

	if c.Training.MaxSteps < 1 {
		return ErrInvalidMaxSteps
	}

	if c.Training.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if c.Training.LR <= 0 {
		return ErrInvalidLR
	}

	if c.Training.ValidationInterval < 1 {
		return ErrInvalidInterval
	}

	// Device placement is decided once, before the loop starts. Only
	// general-purpose compute is supported.
	if c.Training.Device != "cpu" {
		return fmt.Errorf("%w: got %q", ErrUnsupportedDevice, c.Training.Device)
	}

	if c.Training.Noise != nil && *c.Training.Noise < 0 {
		return ErrInvalidNoise
	}

	if c.Training.WarmupRate != nil && (*c.Training.WarmupRate < 0 || *c.Training.WarmupRate > 1) {
		return ErrInvalidWarmupRate
	}

	if c.Training.Momentum != nil && (*c.Training.Momentum < 0 || *c.Training.Momentum >= 1) {
		return ErrInvalidInitMomentum
	}

	if len(c.Training.Scorer.Metrics) == 0 {
		return ErrNoScorerMetrics
	}

	if c.Corpus.TrainPath == "" {
		return ErrMissingTrainPath
	}

	if c.Corpus.ValPath == "" {
		return ErrMissingValPath
	}

	if len(c.Corpus.TargetLabels) == 0 {
		return ErrNoTargetLabels
	}

	if c.Corpus.Limit < 0 {
		return ErrInvalidLimit
	}

	if len(c.Pipeline.Components) == 0 {
		return ErrNoComponents
	}

	if c.Pipeline.NER.FeatureDim < 1 {
		return ErrInvalidFeatureDim
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// TargetLabelSet returns the target labels as a membership set.
func (c *Config) TargetLabelSet() map[string]bool {
	set := make(map[string]bool, len(c.Corpus.TargetLabels))
	for _, label := range c.Corpus.TargetLabels {
		set[label] = true
	}

	return set
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxSteps: %d, BatchSize: %d, LR: %g, Output: %s}",
		c.Training.MaxSteps,
		c.Training.BatchSize,
		c.Training.LR,
		c.Training.OutputPath,
	)
}
