package overlay

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverMergesSources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dark.yaml"), []byte(sampleOverlay), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "compact.jsonc"), []byte(sampleJSONCOverlay), 0644); err != nil {
		t.Fatalf("write jsonc: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripted.go"), []byte(overlayScriptSource), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	docs, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 overlays, got %d", len(docs))
	}
	ids := map[string]bool{}
	for _, doc := range docs {
		ids[doc.Document.ID] = true
	}
	for _, want := range []string{"dark-button", "compact-button", "scripted-button"} {
		if !ids[want] {
			t.Fatalf("missing overlay %s in %v", want, ids)
		}
	}
}

func TestDiscoverEmpty(t *testing.T) {
	docs, err := Discover(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dirs should not error: %v", err)
	}
	if docs != nil {
		t.Fatalf("expected nil for no overlays, got %v", docs)
	}
}
