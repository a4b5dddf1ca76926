// Package main provides the training command that fits the trainable
// pipeline components on an annotated corpus.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"clinlp/internal/config"
	"clinlp/internal/logger"
	"clinlp/internal/pipeline"
	"clinlp/internal/train"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML training configuration")
	outputPath := flag.String("output", "", "Override training.output_path from the configuration")
	flag.Parse()

	if *configPath == "" {
		fmt.Println("Usage: train -config <config.yml> [-output <dir>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// 1. Configuration
	// ----------------
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config failed: %v\n", err)
		os.Exit(1)
	}

	if *outputPath != "" {
		cfg.Training.OutputPath = *outputPath
	}

	log := logger.NewLogger(cfg.Logging.Level)

	log.Info("🚀 Starting training run")
	log.Info(fmt.Sprintf("📍 Train corpus: %s", cfg.Corpus.TrainPath))
	log.Info(fmt.Sprintf("📍 Val corpus: %s", cfg.Corpus.ValPath))
	log.Info(fmt.Sprintf("🎯 Output: %s", cfg.Training.OutputPath))

	// 2. Pipeline assembly
	// --------------------
	log.Info("Phase 1: Assembling pipeline...")

	pipe, err := pipeline.New(&cfg.Pipeline, pipeline.DefaultRegistry())
	if err != nil {
		log.Error(fmt.Sprintf("❌ Pipeline assembly failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Components: %v", cfg.Pipeline.Components))

	// 3. Optimization
	// ---------------
	log.Info("Phase 2: Training...")

	startTime := time.Now()

	result, err := train.Train(cfg, pipe, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Training failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Trained %d steps in %v", result.Steps, time.Since(startTime)))

	// 4. Report
	// ---------
	log.Info("Phase 3: Reporting...")
	fmt.Print(train.Report(result))
	log.Info(fmt.Sprintf("💾 Checkpoint: %s", result.CheckpointPath))
}
