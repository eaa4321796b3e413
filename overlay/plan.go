package overlay

import (
	"fmt"
	"sort"
)

// Plan fixes the order overlays apply in. Requirements come before their
// dependents, and ties break by overlay ID so repeated runs stay
// deterministic.
type Plan struct {
	Steps []DocumentFile
}

// IDs returns the planned overlay IDs in application order.
func (p *Plan) IDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		ids = append(ids, step.Document.ID)
	}
	return ids
}

// BuildPlan orders overlay documents by their requirements. Duplicate IDs,
// unknown requirements, and requirement cycles are rejected.
func BuildPlan(files []DocumentFile) (*Plan, error) {
	byID := make(map[string]DocumentFile, len(files))
	for _, file := range files {
		id := file.Document.ID
		if existing, ok := byID[id]; ok {
			return nil, fmt.Errorf("overlay: duplicate overlay id %s (%s and %s)", id, existing.Path, file.Path)
		}
		byID[id] = file
	}

	for _, file := range files {
		for _, req := range file.Document.Requires {
			if _, ok := byID[req]; !ok {
				return nil, fmt.Errorf("overlay %s: requires unknown overlay %s", file.Document.ID, req)
			}
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(ids))
	plan := &Plan{Steps: make([]DocumentFile, 0, len(ids))}

	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("overlay: requirement cycle involving %s", id)
		}
		marks[id] = visiting
		file := byID[id]
		reqs := append([]string(nil), file.Document.Requires...)
		sort.Strings(reqs)
		for _, req := range reqs {
			if err := visit(req); err != nil {
				return err
			}
		}
		marks[id] = done
		plan.Steps = append(plan.Steps, file)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
