// Package main provides the validate command-line tool that checks a
// standoff corpus for consistency before training.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"clinlp/internal/brat"
	"clinlp/internal/validator"
)

func main() {
	inputPath := flag.String("input", "", "Path to corpus directory")
	labels := flag.String("labels", "", "Comma-separated target labels (optional)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: validate -input <corpus dir> [-labels sosy,disease]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	docs, err := brat.ReadCorpus(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Corpus read failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("📂 Read %d documents from %s\n", len(docs), *inputPath)

	var targets []string
	if *labels != "" {
		targets = strings.Split(*labels, ",")
	}

	result := validator.NewCorpusValidator(targets).Validate(docs)

	fmt.Printf("📊 Annotations: %d total, %d valid, %d out of bounds, %d text mismatches, %d overlapping\n",
		result.Stats.TotalAnnotations,
		result.Stats.ValidAnnotations,
		result.Stats.OutOfBounds,
		result.Stats.TextMismatches,
		result.Stats.Overlapping)

	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}

	for _, err := range result.Errors {
		fmt.Printf("❌ %s\n", err)
	}

	if !result.IsValid {
		fmt.Println("❌ Corpus is inconsistent")
		os.Exit(1)
	}

	fmt.Println("✅ Corpus is consistent")
}
