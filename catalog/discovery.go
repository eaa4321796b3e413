package catalog

import (
	"fmt"

	"github.com/kingrea/refit/behavior"
)

// RegisterDefinitions discovers YAML documents across the given directories
// and registers each as a behavior definition. It returns the source files in
// registration order so callers can report what was loaded.
func RegisterDefinitions(reg *behavior.Registry, dirs ...string) ([]DocumentFile, error) {
	if reg == nil {
		return nil, nil
	}
	var all []DocumentFile
	seen := make(map[string]string)
	for _, dir := range dirs {
		docs, err := LoadDocumentDir(dir)
		if err != nil {
			return nil, err
		}
		for _, file := range docs {
			doc := file.Document
			if existing, ok := seen[doc.ID]; ok {
				return nil, fmt.Errorf("catalog: duplicate definition id %s (%s and %s)", doc.ID, existing, file.Path)
			}
			seen[doc.ID] = file.Path

			def, err := doc.Definition()
			if err != nil {
				return nil, fmt.Errorf("catalog: %s: %w", file.Path, err)
			}
			if err := reg.Register(def); err != nil {
				return nil, fmt.Errorf("catalog: register %s from %s: %w", doc.ID, file.Path, err)
			}
			all = append(all, file)
		}
	}
	return all, nil
}
