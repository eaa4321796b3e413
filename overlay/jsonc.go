package overlay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// ParseDocumentJSONC decodes and validates an overlay authored as JSONC
// (JSON extended with // line comments, /* block comments */, and trailing
// commas).
func ParseDocumentJSONC(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("overlay: document payload is empty")
	}
	stripped := jsonc.ToJSON(data)
	var doc Document
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return Document{}, fmt.Errorf("overlay: decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc.Normalized(), nil
}

// LoadJSONCFile reads a JSONC file from disk and returns the parsed overlay.
func LoadJSONCFile(path string) (DocumentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("overlay: read %s: %w", path, err)
	}
	doc, err := ParseDocumentJSONC(data)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("overlay: %s: %w", path, err)
	}
	return DocumentFile{Document: doc, Path: filepath.Clean(path)}, nil
}

// LoadJSONCDir scans a directory for *.jsonc and *.json overlays and returns
// the parsed documents. Missing directories are treated as "no overlays".
func LoadJSONCDir(dir string) ([]DocumentFile, error) {
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
		if !isJSONCFile(entry.Name()) {
			continue
		}
		doc, err := LoadJSONCFile(filepath.Join(trimmed, entry.Name()))
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

func isJSONCFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".jsonc") || strings.HasSuffix(lower, ".json")
}
