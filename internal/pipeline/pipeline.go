// Package pipeline assembles named processing components into a typed
// pipeline resolved from configuration at load time.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"clinlp/internal/config"
	"clinlp/internal/models"
	"clinlp/internal/ner"
	"clinlp/internal/optim"
	"clinlp/internal/tokenize"
	"clinlp/pkg/metadata"
)

// PipelineFile is the pipeline description inside a checkpoint directory.
const PipelineFile = "pipeline.json"

// Pipeline errors.
var (
	ErrUnknownComponent = errors.New("unknown pipeline component")
	ErrNoTrainable      = errors.New("pipeline holds no trainable component")
)

// Component processes one document in place.
type Component interface {
	Name() string
	Process(doc *models.Document) error
}

// Trainable is a component with learnable parameters: it exposes a forward
// pass producing a loss and predictions, parameter groups for the
// optimizer, and disk persistence.
type Trainable interface {
	Component
	PostInit(examples []*models.Example, seed int64) error
	Forward(batch models.Batch) (float64, [][]models.TokenSpan, error)
	ParamGroups(lr, momentum float64, totalSteps int, warmupRate float64) []*optim.ParamGroup
	SaveTo(dir string) error
	LoadFrom(dir string) error
}

// Builder constructs one named component from the pipeline configuration.
type Builder func(cfg *config.PipelineConfig) (Component, error)

// Registry maps component names to constructors, resolved once at
// configuration-load time.
type Registry map[string]Builder

// DefaultRegistry returns the built-in component set.
func DefaultRegistry() Registry {
	return Registry{
		"ner": func(cfg *config.PipelineConfig) (Component, error) {
			return ner.New(cfg.NER.Labels, cfg.NER.FeatureDim), nil
		},
		"negation": func(cfg *config.PipelineConfig) (Component, error) {
			return NewNegation(cfg.Negation), nil
		},
		"hypothesis": func(cfg *config.PipelineConfig) (Component, error) {
			return NewHypothesis(cfg.Hypothesis), nil
		},
		"history": func(cfg *config.PipelineConfig) (Component, error) {
			return NewHistory(cfg.History), nil
		},
	}
}

// Pipeline runs tokenization, sentence segmentation and the configured
// components over documents, in order.
type Pipeline struct {
	cfg        *config.PipelineConfig
	components []Component
}

// New resolves the configured component names against the registry into a
// typed pipeline.
func New(cfg *config.PipelineConfig, reg Registry) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}

	for _, name := range cfg.Components {
		builder, ok := reg[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}

		component, err := builder(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build component %q: %w", name, err)
		}

		p.components = append(p.components, component)
	}

	return p, nil
}

// Process tokenizes and sentence-splits the document, then runs every
// component over it in order.
func (p *Pipeline) Process(doc *models.Document) error {
	doc.Tokens, doc.Sents = tokenize.Segment(doc.Text)

	for _, component := range p.components {
		if err := component.Process(doc); err != nil {
			return fmt.Errorf("component %q failed: %w", component.Name(), err)
		}
	}

	return nil
}

// ProcessAll runs the pipeline over each document.
func (p *Pipeline) ProcessAll(docs []*models.Document) error {
	for _, doc := range docs {
		if err := p.Process(doc); err != nil {
			return err
		}
	}

	return nil
}

// Components returns the ordered component list.
func (p *Pipeline) Components() []Component {
	return p.components
}

// Get returns the named component.
func (p *Pipeline) Get(name string) (Component, bool) {
	for _, component := range p.components {
		if component.Name() == name {
			return component, true
		}
	}

	return nil, false
}

// Trainables returns the trainable components in pipeline order.
func (p *Pipeline) Trainables() []Trainable {
	var trainables []Trainable

	for _, component := range p.components {
		if trainable, ok := component.(Trainable); ok {
			trainables = append(trainables, trainable)
		}
	}

	return trainables
}

// SaveTo persists the pipeline into a checkpoint directory: the pipeline
// description, every trainable component's parameters, and a signed
// manifest. An existing checkpoint is overwritten.
func (p *Pipeline) SaveTo(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(p.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline description: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, PipelineFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline description: %w", err)
	}

	for _, trainable := range p.Trainables() {
		if err := trainable.SaveTo(dir); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list checkpoint directory: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if !entry.IsDir() && entry.Name() != metadata.ManifestFile {
			files = append(files, entry.Name())
		}
	}

	return metadata.Sign(dir, files)
}

// Load restores a complete pipeline from a checkpoint directory, verifying
// the manifest first.
func Load(dir string, reg Registry) (*Pipeline, error) {
	if err := metadata.Verify(dir); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint at %s: %w", dir, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, PipelineFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline description: %w", err)
	}

	var cfg config.PipelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline description: %w", err)
	}

	p, err := New(&cfg, reg)
	if err != nil {
		return nil, err
	}

	for _, trainable := range p.Trainables() {
		if err := trainable.LoadFrom(dir); err != nil {
			return nil, err
		}
	}

	return p, nil
}
