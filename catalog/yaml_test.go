package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDocument = `id: button
version: 1.0.0
name: Button
behaviors:
  color: "#3366cc"
  label: Press me
  elevated: false
`

func TestParseDocumentYAML(t *testing.T) {
	doc, err := ParseDocumentYAML([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.ID != "button" || doc.Behaviors["label"] != "Press me" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestParseDocumentYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"empty payload", "", "payload is empty"},
		{"missing id", "version: 1.0.0\nbehaviors:\n  color: red\n", "id is required"},
		{"missing version", "id: button\nbehaviors:\n  color: red\n", "version is required"},
		{"no behaviors", "id: button\nversion: 1.0.0\n", "at least one behavior"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentYAML([]byte(tt.payload))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadDocumentDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "button.yaml")
	if err := os.WriteFile(path, []byte(sampleDocument), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("write extra: %v", err)
	}
	docs, err := LoadDocumentDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Path != path {
		t.Fatalf("expected path %s, got %s", path, docs[0].Path)
	}
	if docs[0].Document.ID != "button" {
		t.Fatalf("unexpected id: %+v", docs[0].Document)
	}
}

func TestLoadDocumentDirMissing(t *testing.T) {
	docs, err := LoadDocumentDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if docs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", docs)
	}
}
