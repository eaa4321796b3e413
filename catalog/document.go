// Package catalog loads behavior definition documents from a project's
// .refit/definitions directory and registers them for overlay application.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kingrea/refit/behavior"
)

// Document describes a behavior definition loaded from YAML.
//
// The struct mirrors the on-disk schema under .refit/definitions/*.yaml and
// is intentionally narrow so callers can validate document metadata before
// wiring definitions into a registry.
type Document struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version" yaml:"version"`
	Behaviors   map[string]any `json:"behaviors" yaml:"behaviors"`
}

// Normalized returns a trimmed, copy-on-write variant of the document.
func (doc Document) Normalized() Document {
	clone := Document{
		ID:          strings.TrimSpace(doc.ID),
		Name:        strings.TrimSpace(doc.Name),
		Description: strings.TrimSpace(doc.Description),
		Version:     strings.TrimSpace(doc.Version),
	}
	if len(doc.Behaviors) > 0 {
		clone.Behaviors = make(map[string]any, len(doc.Behaviors))
		for key, value := range doc.Behaviors {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Behaviors[trimmed] = value
		}
	}
	return clone
}

// Validate ensures the document is well-formed.
func (doc Document) Validate() error {
	normalized := doc.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("catalog: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("catalog %s: version is required", normalized.ID)
	}
	if len(normalized.Behaviors) == 0 {
		return fmt.Errorf("catalog %s: at least one behavior is required", normalized.ID)
	}
	return nil
}

// Definition converts the document into a live behavior definition. The
// document's behavior map becomes the definition's base, so later edits to
// the document do not leak into the registered definition.
func (doc Document) Definition() (*behavior.Definition, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	normalized := doc.Normalized()
	info := behavior.Info{
		ID:          normalized.ID,
		Name:        normalized.Name,
		Description: normalized.Description,
		Version:     normalized.Version,
	}
	return behavior.Define(info, behavior.Map(normalized.Behaviors))
}
