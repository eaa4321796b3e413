package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunRecord is the persisted snapshot of the last apply run. Definitions maps
// definition IDs to the behavior fingerprint recorded after the run, which is
// what later drift checks compare against.
type RunRecord struct {
	RunID       string            `json:"run_id"`
	Started     time.Time         `json:"started"`
	Finished    time.Time         `json:"finished"`
	Outcomes    map[string]string `json:"outcomes,omitempty"`
	Definitions map[string]string `json:"definitions,omitempty"`
}

// OutcomeCounts tallies outcomes by label, e.g. applied/skipped/failed.
func (r *RunRecord) OutcomeCounts() map[string]int {
	if r == nil {
		return nil
	}
	counts := map[string]int{}
	for _, outcome := range r.Outcomes {
		counts[outcome]++
	}
	return counts
}

// Load reads a run record from disk. A missing file is not an error; it just
// means no apply has run yet.
func Load(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("state: parse run record: %w", err)
	}
	return &record, nil
}

// Save writes the run record to disk, preserving directory structure.
func Save(path string, record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil run record")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DriftStatus classifies how a definition compares to the last run record.
type DriftStatus string

const (
	DriftUnchanged DriftStatus = "unchanged"
	DriftModified  DriftStatus = "modified"
	DriftMissing   DriftStatus = "missing"
	DriftAdded     DriftStatus = "added"
)

// Drift reports one definition's deviation from the recorded fingerprint.
type Drift struct {
	Definition string      `json:"definition"`
	Status     DriftStatus `json:"status"`
	Recorded   string      `json:"recorded,omitempty"`
	Current    string      `json:"current,omitempty"`
}

// Diff compares current definition fingerprints against the record. A nil
// record classifies everything as added. Results are sorted by definition ID.
func Diff(record *RunRecord, current map[string]string) []Drift {
	var recorded map[string]string
	if record != nil {
		recorded = record.Definitions
	}

	var drifts []Drift
	for id, fingerprint := range current {
		prior, ok := recorded[id]
		switch {
		case !ok:
			drifts = append(drifts, Drift{Definition: id, Status: DriftAdded, Current: fingerprint})
		case prior != fingerprint:
			drifts = append(drifts, Drift{Definition: id, Status: DriftModified, Recorded: prior, Current: fingerprint})
		default:
			drifts = append(drifts, Drift{Definition: id, Status: DriftUnchanged, Recorded: prior, Current: fingerprint})
		}
	}
	for id, prior := range recorded {
		if _, ok := current[id]; !ok {
			drifts = append(drifts, Drift{Definition: id, Status: DriftMissing, Recorded: prior})
		}
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Definition < drifts[j].Definition })
	return drifts
}
