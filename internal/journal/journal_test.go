package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "journal.jsonl")
	j, err := New(path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	j.Applied("run-1", "button", "dark-button", []string{"color"},
		map[string]string{"color": "#3366cc"},
		map[string]string{"color": "#10131a"})
	j.Skipped("run-1", "button", "compact-button", "flag compact is false")
	j.Failed("run-1", "button", "broken-button", "generator panicked")

	entries := j.Tail(10)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Kind != KindApplied || entries[1].Kind != KindSkipped || entries[2].Kind != KindFailed {
		t.Fatalf("entries out of order: %v %v %v", entries[0].Kind, entries[1].Kind, entries[2].Kind)
	}
	if entries[0].ID == "" || entries[0].Time.IsZero() {
		t.Fatalf("expected Stamp to fill id and time")
	}
	if entries[0].Before["color"] != "#3366cc" || entries[0].After["color"] != "#10131a" {
		t.Fatalf("wrong before/after: %v / %v", entries[0].Before, entries[0].After)
	}

	tail := j.Tail(2)
	if len(tail) != 2 || tail[0].Kind != KindSkipped {
		t.Fatalf("expected tail to keep the most recent entries, got %v", tail)
	}
}

func TestAllSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	j.Applied("run-1", "button", "one", nil, nil, nil)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	j.Applied("run-1", "button", "two", nil, nil, nil)

	entries := j.All()
	if len(entries) != 2 {
		t.Fatalf("expected the bad line to be skipped, got %d entries", len(entries))
	}
	if entries[0].Overlay != "one" || entries[1].Overlay != "two" {
		t.Fatalf("wrong entries: %v", entries)
	}
}

func TestTailMissingFile(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if entries := j.Tail(5); entries != nil {
		t.Fatalf("expected nil for empty journal, got %v", entries)
	}
}

func TestRenderValues(t *testing.T) {
	rendered := RenderValues(map[string]any{
		"label":   "Press me",
		"count":   3,
		"handler": func() {},
		"nothing": nil,
	})
	if rendered["label"] != "Press me" {
		t.Fatalf("wrong label rendering: %s", rendered["label"])
	}
	if rendered["count"] != "3" {
		t.Fatalf("wrong count rendering: %s", rendered["count"])
	}
	if !strings.HasPrefix(rendered["handler"], "fn:") {
		t.Fatalf("expected callable to render by type, got %s", rendered["handler"])
	}
	if rendered["nothing"] != "<nil>" {
		t.Fatalf("wrong nil rendering: %s", rendered["nothing"])
	}
	if RenderValues(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}
