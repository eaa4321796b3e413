package overlay

import (
	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/internal/fingerprint"
	"github.com/kingrea/refit/internal/notify"
)

// DefinitionFingerprints hashes every registered definition's behavior map.
// The result feeds drift detection against the last run record.
func DefinitionFingerprints(reg *behavior.Registry) map[string]string {
	if reg == nil {
		return nil
	}
	out := make(map[string]string, reg.Len())
	for _, id := range reg.IDs() {
		if def, ok := reg.Lookup(id); ok {
			out[id] = fingerprint.Map(def.Snapshot()).String()
		}
	}
	return out
}

// RegistrySummaries builds the read-only catalog view served by the
// inspection server.
func RegistrySummaries(reg *behavior.Registry) []notify.DefinitionSummary {
	if reg == nil {
		return nil
	}
	summaries := make([]notify.DefinitionSummary, 0, reg.Len())
	for _, id := range reg.IDs() {
		def, ok := reg.Lookup(id)
		if !ok {
			continue
		}
		info := def.Info()
		summaries = append(summaries, notify.DefinitionSummary{
			ID:          info.ID,
			Name:        info.Name,
			Version:     info.Version,
			Behaviors:   def.Len(),
			Fingerprint: fingerprint.Map(def.Snapshot()).Short(),
		})
	}
	return summaries
}
