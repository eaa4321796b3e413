package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/refit/overlay"
)

// ProjectReport aggregates per-file reports with cross-document findings.
type ProjectReport struct {
	Files   []Report
	Project []error
}

// IsValid reports whether every file and the project as a whole passed.
func (p *ProjectReport) IsValid() bool {
	if p == nil {
		return false
	}
	for i := range p.Files {
		if !p.Files[i].IsValid() {
			return false
		}
	}
	return len(p.Project) == 0
}

// ValidateProject lints every overlay under the given directories and then
// cross-checks the set as a whole: duplicate IDs, targets that are not
// registered definitions, and requirements that are unknown or cyclic.
// Script overlays are evaluated the same way apply evaluates them, so a
// script that fails to interpret surfaces here as a report for its directory.
func ValidateProject(definitionIDs []string, dirs ...string) (*ProjectReport, error) {
	report := &ProjectReport{}
	var docs []overlay.DocumentFile

	for _, dir := range dirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		entries, err := os.ReadDir(trimmed)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("lint: read %s: %w", trimmed, err)
		}
		hasScripts := false
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			path := filepath.Join(trimmed, name)
			switch {
			case isOverlayDataFile(name):
				fileReport, err := ValidateOverlayFile(path)
				if err != nil {
					return nil, err
				}
				report.Files = append(report.Files, *fileReport)
				if fileReport.IsValid() {
					data, err := os.ReadFile(path)
					if err != nil {
						return nil, fmt.Errorf("lint: read overlay file: %w", err)
					}
					doc, _ := decodeDocument(path, data)
					docs = append(docs, overlay.DocumentFile{Document: doc.Normalized(), Path: path})
				}
			case filepath.Ext(name) == ".go":
				hasScripts = true
			}
		}
		if hasScripts {
			scriptDocs, err := overlay.LoadScriptDir(trimmed)
			if err != nil {
				report.Files = append(report.Files, Report{Path: trimmed, Errors: []error{err}})
				continue
			}
			for _, sd := range scriptDocs {
				report.Files = append(report.Files, Report{
					Path:    sd.Path,
					Overlay: sd.Document.ID,
					Target:  sd.Document.Target,
					Errors:  CheckDocument(sd.Document),
				})
				docs = append(docs, sd)
			}
		}
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	report.Project = CheckProject(docs, definitionIDs)
	return report, nil
}

// CheckProject runs cross-document checks over an already-loaded overlay set.
func CheckProject(docs []overlay.DocumentFile, definitionIDs []string) []error {
	var errs []error

	known := make(map[string]struct{}, len(definitionIDs))
	for _, id := range definitionIDs {
		known[strings.TrimSpace(id)] = struct{}{}
	}

	paths := make(map[string]string, len(docs))
	ids := make(map[string]overlay.Document, len(docs))
	order := make([]string, 0, len(docs))
	for _, file := range docs {
		doc := file.Document.Normalized()
		if doc.ID == "" {
			continue
		}
		if prev, dup := paths[doc.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate overlay id %s (%s and %s)", doc.ID, prev, file.Path))
			continue
		}
		paths[doc.ID] = file.Path
		ids[doc.ID] = doc
		order = append(order, doc.ID)
	}
	sort.Strings(order)

	for _, id := range order {
		doc := ids[id]
		if len(definitionIDs) > 0 {
			if _, ok := known[doc.Target]; !ok {
				errs = append(errs, fmt.Errorf("overlay %s: target %s is not a registered definition", id, doc.Target))
			}
		}
		for _, req := range doc.Requires {
			if _, ok := ids[req]; !ok {
				errs = append(errs, fmt.Errorf("overlay %s: requires unknown overlay %s", id, req))
			}
		}
	}

	errs = append(errs, requirementCycles(ids, order)...)
	return errs
}

// requirementCycles reports every overlay on a requirement cycle, one error
// per cycle member, in sorted order.
func requirementCycles(ids map[string]overlay.Document, order []string) []error {
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(ids))
	onCycle := make(map[string]bool)
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		marks[id] = visiting
		stack = append(stack, id)
		for _, req := range ids[id].Requires {
			if _, ok := ids[req]; !ok {
				continue
			}
			switch marks[req] {
			case unvisited:
				visit(req)
			case visiting:
				for i := len(stack) - 1; i >= 0; i-- {
					onCycle[stack[i]] = true
					if stack[i] == req {
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		marks[id] = done
	}
	for _, id := range order {
		if marks[id] == unvisited {
			visit(id)
		}
	}

	var errs []error
	for _, id := range order {
		if onCycle[id] {
			errs = append(errs, fmt.Errorf("overlay %s: requirement cycle", id))
		}
	}
	return errs
}

func isOverlayDataFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") ||
		strings.HasSuffix(lower, ".jsonc") || strings.HasSuffix(lower, ".json")
}
