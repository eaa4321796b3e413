package overlay

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleJSONCOverlay = `{
	// Compact spacing for dense layouts.
	"id": "compact-button",
	"version": "1.0.0",
	"target": "button",
	"when": {
		"flag": "compact",
	},
	"set": {
		"padding": 2,
		"label": "Go", /* short label */
	},
}`

func TestParseDocumentJSONC(t *testing.T) {
	doc, err := ParseDocumentJSONC([]byte(sampleJSONCOverlay))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.ID != "compact-button" || doc.Target != "button" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.When == nil || doc.When.Flag != "compact" {
		t.Fatalf("when clause not parsed: %+v", doc.When)
	}
	if doc.Set["label"] != "Go" {
		t.Fatalf("set not parsed: %v", doc.Set)
	}
}

func TestLoadJSONCDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "compact.jsonc"), []byte(sampleJSONCOverlay), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	docs, err := LoadJSONCDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 || docs[0].Document.ID != "compact-button" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestLoadJSONCDirRejectsInvalid(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.json"), []byte(`{"id": "x"}`), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, err := LoadJSONCDir(root); err == nil {
		t.Fatalf("expected validation error for incomplete overlay")
	}
}
