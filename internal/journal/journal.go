package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind labels what a journal entry records.
type Kind string

const (
	KindApplied    Kind = "applied"
	KindSkipped    Kind = "skipped"
	KindFailed     Kind = "failed"
	KindRegistered Kind = "registered"
	KindReloaded   Kind = "reloaded"
)

// Entry is one line of the apply journal. Before and After hold rendered
// behavior values for the keys an overlay touched, captured on either side
// of the merge.
type Entry struct {
	ID         string            `json:"id"`
	Time       time.Time         `json:"time"`
	RunID      string            `json:"run_id,omitempty"`
	Kind       Kind              `json:"kind"`
	Definition string            `json:"definition,omitempty"`
	Overlay    string            `json:"overlay,omitempty"`
	Keys       []string          `json:"keys,omitempty"`
	Before     map[string]string `json:"before,omitempty"`
	After      map[string]string `json:"after,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// Stamp fills in the generated fields when the caller left them empty.
func (e *Entry) Stamp() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	sort.Strings(e.Keys)
}

// Journal persists apply history as JSON lines. Writes are best effort so a
// full disk never turns a successful apply into a failure.
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal that writes to the provided path.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Journal{path: path}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Append writes a single entry to the journal.
func (j *Journal) Append(entry Entry) {
	if j == nil {
		return
	}
	entry.Stamp()
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.Write(append(data, '\n'))
}

// Tail returns up to maxEntries of the most recent entries, oldest first.
// Lines that fail to parse are skipped rather than aborting the read.
func (j *Journal) Tail(maxEntries int) []Entry {
	if j == nil || maxEntries <= 0 {
		return nil
	}
	entries := j.All()
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	return entries
}

// All returns every parseable entry in the journal, oldest first.
func (j *Journal) All() []Entry {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Applied records a successful overlay merge.
func (j *Journal) Applied(runID, definition, overlay string, keys []string, before, after map[string]string) {
	j.Append(Entry{
		RunID:      runID,
		Kind:       KindApplied,
		Definition: definition,
		Overlay:    overlay,
		Keys:       keys,
		Before:     before,
		After:      after,
	})
}

// Skipped records an overlay whose condition held it back.
func (j *Journal) Skipped(runID, definition, overlay, reason string) {
	j.Append(Entry{
		RunID:      runID,
		Kind:       KindSkipped,
		Definition: definition,
		Overlay:    overlay,
		Note:       reason,
	})
}

// Failed records an overlay that errored or panicked.
func (j *Journal) Failed(runID, definition, overlay, reason string) {
	j.Append(Entry{
		RunID:      runID,
		Kind:       KindFailed,
		Definition: definition,
		Overlay:    overlay,
		Note:       reason,
	})
}

// RenderValues converts behavior values into journal-safe strings. Callables
// render as their type so entries stay deterministic across runs.
func RenderValues(values map[string]any) map[string]string {
	if len(values) == 0 {
		return nil
	}
	rendered := make(map[string]string, len(values))
	for key, value := range values {
		rendered[key] = renderValue(value)
	}
	return rendered
}

func renderValue(value any) string {
	if value == nil {
		return "<nil>"
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "fn:" + rv.Type().String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
