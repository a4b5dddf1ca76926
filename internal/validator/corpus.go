// Package validator checks standoff corpora for internal consistency
// before they are fed to training: offsets in bounds, lexical variants
// matching the text they point at, and overlapping annotations reported.
package validator

import (
	"fmt"
	"strings"

	"clinlp/internal/models"
	"clinlp/pkg/textutil"
)

// ValidationError represents one inconsistency with context.
type ValidationError struct {
	NoteID  string
	AnnID   string
	Field   string
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s/%s: %s: %s", e.NoteID, e.AnnID, e.Field, e.Message)
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalDocuments   int
	TotalAnnotations int
	ValidAnnotations int
	OutOfBounds      int
	TextMismatches   int
	Overlapping      int
}

// ValidationResult contains validation results for a corpus.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// CorpusValidator validates annotated documents.
type CorpusValidator struct {
	targets map[string]bool
}

// maxVariantLen bounds the lexical variants quoted in mismatch messages,
// which otherwise repeat whole sentences for long discontinuous spans.
const maxVariantLen = 60

// NewCorpusValidator creates a validator. With target labels given, it
// also warns about documents carrying none of them.
func NewCorpusValidator(targetLabels []string) *CorpusValidator {
	targets := make(map[string]bool, len(targetLabels))
	for _, label := range targetLabels {
		targets[label] = true
	}

	return &CorpusValidator{targets: targets}
}

// Validate checks every annotation of every document. The result is valid
// when no errors were found; warnings alone do not fail a corpus.
func (v *CorpusValidator) Validate(docs []*models.Document) *ValidationResult {
	result := &ValidationResult{}
	result.Stats.TotalDocuments = len(docs)

	for _, doc := range docs {
		v.validateDocument(doc, result)
	}

	result.IsValid = len(result.Errors) == 0

	return result
}

func (v *CorpusValidator) validateDocument(doc *models.Document, result *ValidationResult) {
	hasTarget := false

	for i, ann := range doc.Annotations {
		result.Stats.TotalAnnotations++

		if v.targets[ann.Label] {
			hasTarget = true
		}

		if ann.Start < 0 || ann.End > len(doc.Text) || ann.Start >= ann.End {
			result.Stats.OutOfBounds++
			result.Errors = append(result.Errors, ValidationError{
				NoteID:  doc.ID,
				AnnID:   ann.ID,
				Field:   "offsets",
				Message: fmt.Sprintf("range %d..%d outside document of length %d", ann.Start, ann.End, len(doc.Text)),
			})

			continue
		}

		if !variantMatches(doc.Text[ann.Start:ann.End], ann.Text) {
			result.Stats.TextMismatches++
			result.Errors = append(result.Errors, ValidationError{
				NoteID:  doc.ID,
				AnnID:   ann.ID,
				Field:   "text",
				Message: fmt.Sprintf("lexical variant %q does not match document slice %q",
					textutil.Truncate(ann.Text, maxVariantLen),
					textutil.Truncate(doc.Text[ann.Start:ann.End], maxVariantLen)),
			})

			continue
		}

		result.Stats.ValidAnnotations++

		for _, other := range doc.Annotations[:i] {
			if ann.Start < other.End && other.Start < ann.End {
				result.Stats.Overlapping++
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: %s overlaps %s; the longer span wins during adaptation", doc.ID, ann.ID, other.ID))

				break
			}
		}
	}

	if len(v.targets) > 0 && len(doc.Annotations) > 0 && !hasTarget {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s: no annotation carries a target label", doc.ID))
	}
}

// variantMatches compares a document slice against the recorded lexical
// variant. Multi-fragment records keep only their first fragment's offsets,
// so a variant longer than the slice still matches on its prefix.
func variantMatches(slice, variant string) bool {
	slice = textutil.NormalizeWhitespace(slice)
	variant = textutil.NormalizeWhitespace(variant)

	if slice == variant {
		return true
	}

	return strings.HasPrefix(variant, slice)
}
