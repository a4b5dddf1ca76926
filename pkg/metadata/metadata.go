// Package metadata signs and verifies persisted checkpoint directories with
// content hashes, so a corrupt or partially written checkpoint is detected
// on reload.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the name of the manifest inside a checkpoint directory.
const ManifestFile = "manifest.json"

// Manifest verification errors.
var (
	ErrNoManifest   = errors.New("no checkpoint manifest found")
	ErrFileMissing  = errors.New("file listed in manifest is missing")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Manifest records the files of one checkpoint with their content hashes.
type Manifest struct {
	SavedAt time.Time         `json:"savedAt"`
	Files   map[string]string `json:"files"`
}

// CalculateHash computes the SHA-256 hash of a file's content.
func CalculateHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	hash := sha256.Sum256(data)

	return hex.EncodeToString(hash[:]), nil
}

// Sign writes a manifest covering the named files in dir, with a fresh
// timestamp and content hashes.
func Sign(dir string, files []string) error {
	manifest := Manifest{
		SavedAt: time.Now().UTC(),
		Files:   make(map[string]string, len(files)),
	}

	for _, name := range files {
		hash, err := CalculateHash(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		manifest.Files[name] = hash
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Verify checks every file listed in the directory's manifest against its
// recorded hash.
func Verify(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}

		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	for name, want := range manifest.Files {
		got, err := CalculateHash(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(errors.Unwrap(err)) {
				return fmt.Errorf("%w: %s", ErrFileMissing, name)
			}

			return err
		}

		if got != want {
			return fmt.Errorf("%w for %s: expected %s, got %s", ErrHashMismatch, name, want, got)
		}
	}

	return nil
}
