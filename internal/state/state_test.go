package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last-apply.json")

	record := &RunRecord{
		RunID:    "run-42",
		Started:  time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
		Finished: time.Date(2025, 11, 3, 9, 0, 1, 0, time.UTC),
		Outcomes: map[string]string{
			"dark-button":    "applied",
			"compact-button": "skipped",
		},
		Definitions: map[string]string{
			"button": "aabbccdd",
		},
	}
	if err := Save(path, record); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(record, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	counts := loaded.OutcomeCounts()
	if counts["applied"] != 1 || counts["skipped"] != 1 {
		t.Fatalf("wrong outcome counts: %v", counts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	record, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not error, got: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record for missing file, got %v", record)
	}
}

func TestDiff(t *testing.T) {
	record := &RunRecord{
		Definitions: map[string]string{
			"button": "aaaa",
			"dialog": "bbbb",
			"toast":  "cccc",
		},
	}
	current := map[string]string{
		"button": "aaaa",
		"dialog": "dddd",
		"banner": "eeee",
	}

	got := Diff(record, current)
	want := []Drift{
		{Definition: "banner", Status: DriftAdded, Current: "eeee"},
		{Definition: "button", Status: DriftUnchanged, Recorded: "aaaa", Current: "aaaa"},
		{Definition: "dialog", Status: DriftModified, Recorded: "bbbb", Current: "dddd"},
		{Definition: "toast", Status: DriftMissing, Recorded: "cccc"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("drift mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffNilRecord(t *testing.T) {
	got := Diff(nil, map[string]string{"button": "aaaa"})
	if len(got) != 1 || got[0].Status != DriftAdded {
		t.Fatalf("expected everything added for nil record, got %v", got)
	}
}
