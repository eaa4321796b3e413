package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentFile pairs a parsed overlay document with its on-disk source.
type DocumentFile struct {
	Document Document
	Path     string
}

// ParseDocumentYAML decodes and validates a single overlay payload.
func ParseDocumentYAML(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("overlay: document payload is empty")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("overlay: decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc.Normalized(), nil
}

// LoadDocumentFile reads a YAML file from disk and returns the parsed overlay.
func LoadDocumentFile(path string) (DocumentFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("overlay: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DocumentFile{}, fmt.Errorf("overlay: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("overlay: read %s: %w", path, err)
	}
	doc, err := ParseDocumentYAML(data)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("overlay: %s: %w", path, err)
	}
	return DocumentFile{Document: doc, Path: filepath.Clean(path)}, nil
}

// LoadDocumentDir scans a directory for *.yaml overlays and returns the
// parsed documents. Missing directories are treated as "no overlays" to
// simplify startup.
func LoadDocumentDir(dir string) ([]DocumentFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("overlay: read %s: %w", trimmed, err)
	}
	var docs []DocumentFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isYAMLFile(name) {
			continue
		}
		path := filepath.Join(trimmed, name)
		doc, err := LoadDocumentFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
