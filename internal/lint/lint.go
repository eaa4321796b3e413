// Package lint validates overlay documents without applying them. Unlike the
// overlay loaders, which stop at the first bad file, lint collects every
// problem so authors can fix a directory in one pass.
package lint

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/refit/overlay"
)

// Report captures validation results for one overlay source.
type Report struct {
	Path    string
	Overlay string
	Target  string
	Errors  []error
}

// IsValid reports whether the validation passed.
func (r *Report) IsValid() bool {
	return r != nil && len(r.Errors) == 0
}

// ValidateOverlayFile reads and validates a single YAML or JSONC overlay.
func ValidateOverlayFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lint: read overlay file: %w", err)
	}
	doc, parseErr := decodeDocument(path, data)
	if parseErr != nil {
		return &Report{Path: path, Errors: []error{parseErr}}, nil
	}
	return &Report{
		Path:    path,
		Overlay: strings.TrimSpace(doc.ID),
		Target:  strings.TrimSpace(doc.Target),
		Errors:  CheckDocument(doc),
	}, nil
}

// decodeDocument parses an overlay payload by extension without validating it.
func decodeDocument(path string, data []byte) (overlay.Document, error) {
	var doc overlay.Document
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jsonc") || strings.HasSuffix(lower, ".json") {
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return overlay.Document{}, fmt.Errorf("parse overlay file: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return overlay.Document{}, fmt.Errorf("parse overlay file: %w", err)
	}
	return doc, nil
}

// CheckDocument checks one overlay document against the schema expectations.
func CheckDocument(doc overlay.Document) []error {
	var errs []error
	normalized := doc.Normalized()

	if normalized.ID == "" {
		errs = append(errs, fmt.Errorf("id is required"))
	}
	if normalized.Version == "" {
		errs = append(errs, fmt.Errorf("version is required"))
	}
	if normalized.Target == "" {
		errs = append(errs, fmt.Errorf("target is required"))
	}
	if len(normalized.Set) == 0 {
		errs = append(errs, fmt.Errorf("set must name at least one behavior"))
	}
	for key := range doc.Set {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Errorf("set contains a blank behavior key"))
			break
		}
	}
	if doc.When != nil && normalized.When != nil {
		if normalized.When.Flag == "" && normalized.When.Env == "" && !normalized.When.Not {
			errs = append(errs, fmt.Errorf("when clause is empty"))
		}
	}
	for index, req := range doc.Requires {
		trimmed := strings.TrimSpace(req)
		if trimmed == "" {
			errs = append(errs, fmt.Errorf("requires[%d] is blank", index))
			continue
		}
		if trimmed == normalized.ID && normalized.ID != "" {
			errs = append(errs, fmt.Errorf("requires[%d] references the overlay itself", index))
		}
	}
	return errs
}
