package lint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/refit/overlay"
)

func TestValidateOverlayFile(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		payload   string
		wantValid bool
	}{
		{
			name: "valid-yaml",
			file: "dark.yaml",
			payload: `id: dark-button
version: "1"
target: sample-button
when:
  flag: dark_mode
set:
  color: "#10131a"
`,
			wantValid: true,
		},
		{
			name: "valid-jsonc",
			file: "dark.jsonc",
			payload: `{
  // darken the sample button
  "id": "dark-button",
  "version": "1",
  "target": "sample-button",
  "set": {"color": "#10131a"},
}
`,
			wantValid: true,
		},
		{
			name: "missing-target",
			file: "broken.yaml",
			payload: `id: dark-button
version: "1"
set:
  color: "#10131a"
`,
			wantValid: false,
		},
		{
			name: "empty-when",
			file: "when.yaml",
			payload: `id: dark-button
version: "1"
target: sample-button
when: {}
set:
  color: "#10131a"
`,
			wantValid: false,
		},
		{
			name: "requires-itself",
			file: "self.yaml",
			payload: `id: dark-button
version: "1"
target: sample-button
set:
  color: "#10131a"
requires:
  - dark-button
`,
			wantValid: false,
		},
		{
			name:      "unparseable-yaml",
			file:      "garbage.yaml",
			payload:   "id: [unclosed\n",
			wantValid: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, test.file)
			if err := os.WriteFile(path, []byte(test.payload), 0644); err != nil {
				t.Fatalf("write temp overlay: %v", err)
			}
			report, err := ValidateOverlayFile(path)
			if err != nil {
				t.Fatalf("validate overlay file: %v", err)
			}
			if report.IsValid() != test.wantValid {
				t.Fatalf("valid=%v want=%v errors=%v", report.IsValid(), test.wantValid, report.Errors)
			}
		})
	}
}

func TestValidateOverlayFileMissing(t *testing.T) {
	if _, err := ValidateOverlayFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCheckDocumentCollectsEveryError(t *testing.T) {
	errs := CheckDocument(overlay.Document{})
	if len(errs) < 4 {
		t.Fatalf("expected errors for id, version, target, and set, got %v", errs)
	}
}

func TestCheckProject(t *testing.T) {
	docs := []overlay.DocumentFile{
		{Path: "a.yaml", Document: overlay.Document{ID: "base", Version: "1", Target: "button", Set: map[string]any{"color": "red"}}},
		{Path: "b.yaml", Document: overlay.Document{ID: "base", Version: "1", Target: "button", Set: map[string]any{"color": "blue"}}},
		{Path: "c.yaml", Document: overlay.Document{ID: "loop-a", Version: "1", Target: "button", Set: map[string]any{"x": 1}, Requires: []string{"loop-b"}}},
		{Path: "d.yaml", Document: overlay.Document{ID: "loop-b", Version: "1", Target: "missing", Set: map[string]any{"x": 2}, Requires: []string{"loop-a", "nowhere"}}},
	}

	errs := CheckProject(docs, []string{"button"})
	wants := []string{
		"duplicate overlay id base (a.yaml and b.yaml)",
		"target missing is not a registered definition",
		"requires unknown overlay nowhere",
		"overlay loop-a: requirement cycle",
		"overlay loop-b: requirement cycle",
	}
	for _, want := range wants {
		found := false
		for _, err := range errs {
			if strings.Contains(err.Error(), want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing error %q in %v", want, errs)
		}
	}
}

func TestCheckProjectSkipsTargetCheckWithoutDefinitions(t *testing.T) {
	docs := []overlay.DocumentFile{
		{Path: "a.yaml", Document: overlay.Document{ID: "base", Version: "1", Target: "anything", Set: map[string]any{"x": 1}}},
	}
	if errs := CheckProject(docs, nil); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateProject(t *testing.T) {
	dir := t.TempDir()
	good := `id: dark-button
version: "1"
target: sample-button
set:
  color: "#10131a"
`
	bad := `id: broken
version: "1"
set:
  color: red
`
	if err := os.WriteFile(filepath.Join(dir, "dark.yaml"), []byte(good), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(bad), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	report, err := ValidateProject([]string{"sample-button"}, dir, filepath.Join(dir, "absent"))
	if err != nil {
		t.Fatalf("validate project: %v", err)
	}
	if report.IsValid() {
		t.Fatal("expected the broken overlay to fail validation")
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected 2 file reports, got %d", len(report.Files))
	}
	valid := 0
	for i := range report.Files {
		if report.Files[i].IsValid() {
			valid++
		}
	}
	if valid != 1 {
		t.Fatalf("expected exactly one valid file, got %d", valid)
	}
	if len(report.Project) != 0 {
		t.Fatalf("expected no project errors, got %v", report.Project)
	}
}

func TestValidateProjectScripts(t *testing.T) {
	dir := t.TempDir()
	script := `package main

func Overlays() []map[string]any {
	return []map[string]any{
		{
			"id":      "scripted",
			"version": "1",
			"target":  "sample-button",
			"set":     map[string]any{"label": "Scripted"},
		},
	}
}
`
	if err := os.WriteFile(filepath.Join(dir, "gen.go"), []byte(script), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	report, err := ValidateProject([]string{"sample-button"}, dir)
	if err != nil {
		t.Fatalf("validate project: %v", err)
	}
	if !report.IsValid() {
		t.Fatalf("expected a valid report, files=%+v project=%v", report.Files, report.Project)
	}
	if len(report.Files) != 1 || report.Files[0].Overlay != "scripted" {
		t.Fatalf("unexpected file reports: %+v", report.Files)
	}
}
