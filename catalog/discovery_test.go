package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/refit/behavior"
)

func writeDocument(t *testing.T, dir, name, payload string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRegisterDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeDocument(t, dir, "button.yaml", sampleDocument)
	writeDocument(t, dir, "dialog.yaml", `id: dialog
version: 1.0.0
behaviors:
  modal: true
`)

	reg := behavior.NewRegistry()
	files, err := RegisterDefinitions(reg, dir)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if got := reg.IDs(); len(got) != 2 || got[0] != "button" || got[1] != "dialog" {
		t.Fatalf("unexpected registry contents: %v", got)
	}

	def, err := reg.Resolve("button")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if label, ok := def.Lookup("label"); !ok || label != "Press me" {
		t.Fatalf("expected document behaviors on definition, got %v", label)
	}
}

func TestRegisterDefinitionsDuplicateID(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeDocument(t, first, "button.yaml", sampleDocument)
	writeDocument(t, second, "button-copy.yaml", sampleDocument)

	reg := behavior.NewRegistry()
	_, err := RegisterDefinitions(reg, first, second)
	if err == nil || !strings.Contains(err.Error(), "duplicate definition id button") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestRegisterDefinitionsNilRegistry(t *testing.T) {
	files, err := RegisterDefinitions(nil, t.TempDir())
	if err != nil || files != nil {
		t.Fatalf("expected nil registry to be a no-op, got %v %v", files, err)
	}
}
