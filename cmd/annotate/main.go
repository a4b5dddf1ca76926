// Package main provides the annotate command-line tool that runs a
// pipeline over a directory of raw notes and writes standoff annotations.
package main

import (
	"flag"
	"fmt"
	"os"

	"clinlp/internal/brat"
	"clinlp/internal/config"
	"clinlp/internal/corpus"
	"clinlp/internal/logger"
	"clinlp/internal/pipeline"
)

func main() {
	inputPath := flag.String("input", "", "Path to input corpus directory (.txt files)")
	outputPath := flag.String("output", "", "Path to output corpus directory (.ann files)")
	modelPath := flag.String("model", "", "Path to a trained pipeline checkpoint (optional; rule components only when omitted)")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		fmt.Println("Usage: annotate -input <corpus dir> -output <dir> [-model <checkpoint dir>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logger.NewLogger(*level)

	// 1. Pipeline
	// -----------
	var (
		pipe *pipeline.Pipeline
		err  error
	)

	if *modelPath != "" {
		log.Info(fmt.Sprintf("📂 Loading checkpoint: %s", *modelPath))

		pipe, err = pipeline.Load(*modelPath, pipeline.DefaultRegistry())
	} else {
		log.Info("ℹ️  No checkpoint given, running rule components only")

		cfg := &config.Config{}
		cfg.ApplyDefaults()
		cfg.Pipeline.Components = []string{"negation", "hypothesis", "history"}

		pipe, err = pipeline.New(&cfg.Pipeline, pipeline.DefaultRegistry())
	}

	if err != nil {
		log.Error(fmt.Sprintf("❌ Pipeline setup failed: %v", err))
		os.Exit(1)
	}

	// 2. Corpus
	// ---------
	log.Info(fmt.Sprintf("📂 Reading corpus: %s", *inputPath))

	docs, err := brat.ReadCorpus(*inputPath)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Corpus read failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Loaded %d documents", len(docs)))

	// 3. Annotation
	// -------------
	log.Info("Phase 1: Annotating...")

	// Without a trained recognizer the qualifiers act on the entities
	// already present in the standoff files, so align those first.
	if *modelPath == "" {
		adapter := corpus.NewAdapter(nil, 0)

		for _, doc := range docs {
			if err := adapter.Annotate(doc); err != nil {
				log.Error(fmt.Sprintf("❌ Alignment failed for %s: %v", doc.ID, err))
				os.Exit(1)
			}
		}
	}

	for _, doc := range docs {
		if err := pipe.Process(doc); err != nil {
			log.Error(fmt.Sprintf("❌ Annotation failed for %s: %v", doc.ID, err))
			os.Exit(1)
		}
	}

	// 4. Output
	// ---------
	log.Info("Phase 2: Writing annotations...")

	if err := brat.WriteCorpus(*outputPath, docs); err != nil {
		log.Error(fmt.Sprintf("❌ Write failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Wrote %d documents to %s", len(docs), *outputPath))
}
