package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clinlp/internal/config"
	"clinlp/internal/models"
	"clinlp/pkg/metadata"
)

func testPipelineConfig(components ...string) *config.PipelineConfig {
	return &config.PipelineConfig{
		Components: components,
		NER: config.NERConfig{
			Labels:     []string{"sosy"},
			FeatureDim: 1 << 12,
		},
	}
}

func TestNew_ResolvesComponents(t *testing.T) {
	pipe, err := New(testPipelineConfig("ner", "negation", "hypothesis", "history"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if len(pipe.Components()) != 4 {
		t.Fatalf("component count = %d, want 4", len(pipe.Components()))
	}

	names := []string{"ner", "negation", "hypothesis", "history"}
	for i, name := range names {
		if pipe.Components()[i].Name() != name {
			t.Errorf("component[%d] = %s, want %s", i, pipe.Components()[i].Name(), name)
		}
	}
}

func TestNew_UnknownComponent(t *testing.T) {
	_, err := New(testPipelineConfig("ner", "translator"), DefaultRegistry())
	if !errors.Is(err, ErrUnknownComponent) {
		t.Errorf("error = %v, want ErrUnknownComponent", err)
	}
}

func TestPipeline_Get(t *testing.T) {
	pipe, err := New(testPipelineConfig("negation", "history"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if _, ok := pipe.Get("negation"); !ok {
		t.Error("Get(negation) should find the component")
	}

	if _, ok := pipe.Get("ner"); ok {
		t.Error("Get(ner) should miss for a rule-only pipeline")
	}
}

func TestPipeline_Trainables(t *testing.T) {
	pipe, err := New(testPipelineConfig("ner", "negation"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	trainables := pipe.Trainables()
	if len(trainables) != 1 || trainables[0].Name() != "ner" {
		t.Errorf("trainables = %d components, want exactly the recognizer", len(trainables))
	}

	rules, err := New(testPipelineConfig("negation"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if len(rules.Trainables()) != 0 {
		t.Error("rule-only pipeline should have no trainables")
	}
}

func TestPipeline_Process_SegmentsAndQualifies(t *testing.T) {
	pipe, err := New(testPipelineConfig("negation"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	doc := &models.Document{ID: "note1", Text: "The patient shows no sign of anomaly."}

	// An aligned entity placed before processing survives segmentation
	// and gets qualified.
	doc.Ents = []*models.Span{
		{Label: "sosy", Text: "anomaly", Start: 6, End: 7, StartChar: 29, EndChar: 36},
	}

	if err := pipe.Process(doc); err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if len(doc.Tokens) == 0 || len(doc.Sents) == 0 {
		t.Fatal("Process should tokenize and sentence-split the document")
	}

	if !doc.Ents[0].Negated {
		t.Error("entity should be negated")
	}
}

func TestPipeline_ProcessAll(t *testing.T) {
	pipe, err := New(testPipelineConfig("negation"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	docs := []*models.Document{
		{ID: "a", Text: "No fever."},
		{ID: "b", Text: "Cough persists."},
	}

	if err := pipe.ProcessAll(docs); err != nil {
		t.Fatalf("ProcessAll returned unexpected error: %v", err)
	}

	for _, doc := range docs {
		if len(doc.Tokens) == 0 {
			t.Errorf("document %s was not tokenized", doc.ID)
		}
	}
}

func TestPipeline_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoint")

	pipe, err := New(testPipelineConfig("ner", "negation"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := pipe.Trainables()[0].PostInit(nil, 42); err != nil {
		t.Fatalf("PostInit returned unexpected error: %v", err)
	}

	if err := pipe.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo returned unexpected error: %v", err)
	}

	for _, name := range []string{PipelineFile, "ner.json", metadata.ManifestFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("checkpoint file %s missing: %v", name, err)
		}
	}

	restored, err := Load(dir, DefaultRegistry())
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if len(restored.Components()) != 2 {
		t.Errorf("restored component count = %d, want 2", len(restored.Components()))
	}

	if len(restored.Trainables()) != 1 {
		t.Fatal("restored pipeline should hold the trainable recognizer")
	}
}

func TestPipeline_Load_CorruptCheckpoint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoint")

	pipe, err := New(testPipelineConfig("ner"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := pipe.Trainables()[0].PostInit(nil, 42); err != nil {
		t.Fatalf("PostInit returned unexpected error: %v", err)
	}

	if err := pipe.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo returned unexpected error: %v", err)
	}

	// Tamper with the serialized model.
	path := filepath.Join(dir, "ner.json")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read model file: %v", err)
	}

	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to tamper with model file: %v", err)
	}

	if _, err := Load(dir, DefaultRegistry()); !errors.Is(err, metadata.ErrHashMismatch) {
		t.Errorf("error = %v, want ErrHashMismatch", err)
	}
}

func TestPipeline_Load_MissingManifest(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(dir, DefaultRegistry()); !errors.Is(err, metadata.ErrNoManifest) {
		t.Errorf("error = %v, want ErrNoManifest", err)
	}
}

func TestPipeline_SaveTo_Overwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoint")

	pipe, err := New(testPipelineConfig("ner"), DefaultRegistry())
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := pipe.Trainables()[0].PostInit(nil, 42); err != nil {
		t.Fatalf("PostInit returned unexpected error: %v", err)
	}

	if err := pipe.SaveTo(dir); err != nil {
		t.Fatalf("first SaveTo returned unexpected error: %v", err)
	}

	if err := pipe.SaveTo(dir); err != nil {
		t.Fatalf("second SaveTo returned unexpected error: %v", err)
	}

	if _, err := Load(dir, DefaultRegistry()); err != nil {
		t.Errorf("Load after overwrite returned unexpected error: %v", err)
	}
}
