// Package brat reads and writes standoff-annotated corpora: one <id>.txt
// raw text file and one <id>.ann tab-separated annotation file per document.
package brat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"clinlp/internal/models"
)

const (
	textExt = ".txt"
	annExt  = ".ann"
)

// ParseError reports a malformed annotation line.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// ReadCorpus reads all paired text and annotation files from a directory.
// Documents are returned sorted by id. A directory with no text files
// yields an empty slice, not an error.
func ReadCorpus(dir string) ([]*models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var ids []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), textExt) {
			continue
		}

		ids = append(ids, strings.TrimSuffix(entry.Name(), textExt))
	}

	sort.Strings(ids)

	docs := make([]*models.Document, 0, len(ids))

	for _, id := range ids {
		doc, err := ReadDocument(dir, id)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// ReadDocument reads one document and its annotation records. A missing or
// empty annotation file yields zero records.
func ReadDocument(dir, id string) (*models.Document, error) {
	text, err := os.ReadFile(filepath.Join(dir, id+textExt))
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	annPath := filepath.Join(dir, id+annExt)

	anns, err := readAnnotations(annPath)
	if err != nil {
		return nil, err
	}

	return &models.Document{
		ID:          id,
		Text:        string(text),
		Annotations: anns,
	}, nil
}

// readAnnotations parses one annotation file. Each line holds
// id<TAB>label start end<TAB>lexical_variant. Multi-fragment spans use
// ';'-separated fragments; only the first fragment's boundaries are read.
func readAnnotations(path string) ([]models.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	var anns []models.Annotation

	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		ann, err := parseLine(path, i+1, line)
		if err != nil {
			return nil, err
		}

		anns = append(anns, ann)
	}

	return anns, nil
}

func parseLine(path string, lineNo int, line string) (models.Annotation, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\r"), "\t", 3)
	if len(parts) != 3 {
		return models.Annotation{}, &ParseError{
			File:   path,
			Line:   lineNo,
			Reason: fmt.Sprintf("expected 3 tab-separated fields, got %d", len(parts)),
		}
	}

	// Only the first fragment of a multi-fragment span is read.
	fragment := strings.SplitN(parts[1], ";", 2)[0]

	fields := strings.Fields(fragment)
	if len(fields) < 3 {
		return models.Annotation{}, &ParseError{
			File:   path,
			Line:   lineNo,
			Reason: fmt.Sprintf("expected 'label start end', got %q", fragment),
		}
	}

	start, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return models.Annotation{}, &ParseError{
			File:   path,
			Line:   lineNo,
			Reason: fmt.Sprintf("non-numeric start offset %q", fields[len(fields)-2]),
		}
	}

	end, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return models.Annotation{}, &ParseError{
			File:   path,
			Line:   lineNo,
			Reason: fmt.Sprintf("non-numeric end offset %q", fields[len(fields)-1]),
		}
	}

	return models.Annotation{
		ID:    parts[0],
		Label: strings.Join(fields[:len(fields)-2], " "),
		Start: start,
		End:   end,
		Text:  parts[2],
	}, nil
}
