// Package overlay loads override documents from a project's overlay
// directories and applies them to registered behavior definitions. An
// overlay names a target definition, the behaviors it rewires, and an
// optional condition gating the merge.
package overlay

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FlagSource resolves feature flag values for when clauses. *config.Config
// satisfies it directly.
type FlagSource interface {
	Flag(name string) bool
}

// WhenClause gates an overlay on a feature flag, an environment variable, or
// both. Flag and env are ANDed when both are present; Not inverts the final
// result. Environment values are parsed with strconv.ParseBool, and unset or
// unparseable values read as false.
type WhenClause struct {
	Flag string `json:"flag,omitempty" yaml:"flag,omitempty"`
	Env  string `json:"env,omitempty" yaml:"env,omitempty"`
	Not  bool   `json:"not,omitempty" yaml:"not,omitempty"`
}

// Holds evaluates the clause. A nil clause always holds.
func (w *WhenClause) Holds(flags FlagSource) bool {
	if w == nil {
		return true
	}
	result := true
	if w.Flag != "" {
		result = flags != nil && flags.Flag(w.Flag)
	}
	if result && w.Env != "" {
		value, ok := os.LookupEnv(w.Env)
		if !ok {
			result = false
		} else {
			parsed, err := strconv.ParseBool(strings.TrimSpace(value))
			result = err == nil && parsed
		}
	}
	if w.Not {
		result = !result
	}
	return result
}

// String renders the clause for skip reasons and lint output.
func (w *WhenClause) String() string {
	if w == nil {
		return "always"
	}
	var parts []string
	if w.Flag != "" {
		parts = append(parts, "flag "+w.Flag)
	}
	if w.Env != "" {
		parts = append(parts, "env "+w.Env)
	}
	clause := strings.Join(parts, " and ")
	if clause == "" {
		clause = "always"
	}
	if w.Not {
		return "not (" + clause + ")"
	}
	return clause
}

func (w *WhenClause) normalized() *WhenClause {
	if w == nil {
		return nil
	}
	return &WhenClause{
		Flag: strings.TrimSpace(w.Flag),
		Env:  strings.TrimSpace(w.Env),
		Not:  w.Not,
	}
}

func (w *WhenClause) validate() error {
	if w == nil {
		return nil
	}
	if w.Flag == "" && w.Env == "" && !w.Not {
		return fmt.Errorf("when clause is empty")
	}
	return nil
}

// Document describes one override loaded from disk.
//
// The struct mirrors the on-disk schema under .refit/overlays/. Requires
// lists overlay IDs that must apply before this one; a requirement that was
// skipped or failed skips its dependents.
type Document struct {
	ID          string         `json:"id" yaml:"id"`
	Version     string         `json:"version" yaml:"version"`
	Target      string         `json:"target" yaml:"target"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	When        *WhenClause    `json:"when,omitempty" yaml:"when,omitempty"`
	Set         map[string]any `json:"set" yaml:"set"`
	Requires    []string       `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the document.
func (doc Document) Normalized() Document {
	clone := Document{
		ID:          strings.TrimSpace(doc.ID),
		Version:     strings.TrimSpace(doc.Version),
		Target:      strings.TrimSpace(doc.Target),
		Description: strings.TrimSpace(doc.Description),
		When:        doc.When.normalized(),
	}
	if len(doc.Set) > 0 {
		clone.Set = make(map[string]any, len(doc.Set))
		for key, value := range doc.Set {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Set[trimmed] = value
		}
	}
	if len(doc.Requires) > 0 {
		seen := make(map[string]struct{}, len(doc.Requires))
		for _, req := range doc.Requires {
			trimmed := strings.TrimSpace(req)
			if trimmed == "" {
				continue
			}
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			clone.Requires = append(clone.Requires, trimmed)
		}
	}
	return clone
}

// Validate ensures the document is well-formed.
func (doc Document) Validate() error {
	normalized := doc.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("overlay: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("overlay %s: version is required", normalized.ID)
	}
	if normalized.Target == "" {
		return fmt.Errorf("overlay %s: target is required", normalized.ID)
	}
	if len(normalized.Set) == 0 {
		return fmt.Errorf("overlay %s: at least one set entry is required", normalized.ID)
	}
	if err := normalized.When.validate(); err != nil {
		return fmt.Errorf("overlay %s: %w", normalized.ID, err)
	}
	for _, req := range normalized.Requires {
		if req == normalized.ID {
			return fmt.Errorf("overlay %s: requires itself", normalized.ID)
		}
	}
	return nil
}
