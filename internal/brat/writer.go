package brat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clinlp/internal/models"
)

// WriteDocument writes a document's text and entity spans back to the
// corpus directory. Entity ids are renumbered sequentially (T1, T2, ...)
// per document. An empty entity set writes an empty annotation file.
func WriteDocument(dir string, doc *models.Document) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, doc.ID+textExt), []byte(doc.Text), 0644); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}

	var sb strings.Builder

	for i, ent := range doc.Ents {
		fmt.Fprintf(&sb, "T%d\t%s %d %d\t%s\n", i+1, ent.Label, ent.StartChar, ent.EndChar, ent.Text)
	}

	if err := os.WriteFile(filepath.Join(dir, doc.ID+annExt), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write annotation file: %w", err)
	}

	return nil
}

// WriteCorpus writes all documents to the directory.
func WriteCorpus(dir string, docs []*models.Document) error {
	for _, doc := range docs {
		if err := WriteDocument(dir, doc); err != nil {
			return err
		}
	}

	return nil
}
