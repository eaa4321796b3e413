// Package behavior holds the definition model: named objects whose
// capabilities live in a single shared behavior map. Instances delegate to
// that map, so reworking a definition is immediately visible to every
// instance already constructed from it.
package behavior

import (
	"fmt"
	"sort"
	"strings"
)

// Map is a behavior map: capability name to value. Values are either plain
// data or callables the host asserts back to a concrete func type.
type Map map[string]any

// Info describes a definition's identity and intent.
type Info struct {
	ID          string
	Name        string
	Description string
	Version     string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("behavior: id is required")
	}
	if strings.ContainsAny(i.ID, " \t\n") {
		return fmt.Errorf("behavior: id %q must not contain whitespace", i.ID)
	}
	return nil
}

func (i Info) normalized() Info {
	return Info{
		ID:          strings.TrimSpace(i.ID),
		Name:        strings.TrimSpace(i.Name),
		Description: strings.TrimSpace(i.Description),
		Version:     strings.TrimSpace(i.Version),
	}
}

// Definition pairs an identity with one shared behavior map.
//
// The map is deliberately unsynchronized: overrides happen during a
// single-goroutine setup phase, after which the map is read-only. Callers
// that mutate definitions from multiple goroutines get whatever the race
// detector gives them.
type Definition struct {
	info      Info
	behaviors Map
}

// Define builds a definition from an info block and a base behavior map.
// The base map is copied so later caller mutations cannot bypass Merge.
func Define(info Info, base Map) (*Definition, error) {
	normalized := info.normalized()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}
	def := &Definition{
		info:      normalized,
		behaviors: make(Map, len(base)),
	}
	for key, value := range base {
		def.behaviors[key] = value
	}
	return def, nil
}

// MustDefine panics if the definition cannot be built.
func MustDefine(info Info, base Map) *Definition {
	def, err := Define(info, base)
	if err != nil {
		panic(err)
	}
	return def
}

// ID returns the definition identifier.
func (d *Definition) ID() string {
	if d == nil {
		return ""
	}
	return d.info.ID
}

// Info returns the identity block.
func (d *Definition) Info() Info {
	if d == nil {
		return Info{}
	}
	return d.info
}

// Lookup reads one behavior from the shared map.
func (d *Definition) Lookup(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	value, ok := d.behaviors[key]
	return value, ok
}

// Behavior returns the value for key, or nil when the key is absent.
func (d *Definition) Behavior(key string) any {
	value, _ := d.Lookup(key)
	return value
}

// Keys returns the behavior names in sorted order.
func (d *Definition) Keys() []string {
	if d == nil || len(d.behaviors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.behaviors))
	for key := range d.behaviors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports how many behaviors the definition carries.
func (d *Definition) Len() int {
	if d == nil {
		return 0
	}
	return len(d.behaviors)
}

// Merge copies every entry into the shared behavior map, overwriting values
// for keys that already exist and touching nothing else. This is the only
// mutation path; a nil or empty entries map is a no-op. All instances of the
// definition observe the merged values immediately.
func (d *Definition) Merge(entries Map) {
	if d == nil || len(entries) == 0 {
		return
	}
	for key, value := range entries {
		d.behaviors[key] = value
	}
}

// Snapshot returns a shallow copy of the behavior map, suitable for
// fingerprinting or diffing without holding a live reference.
func (d *Definition) Snapshot() Map {
	if d == nil || len(d.behaviors) == 0 {
		return nil
	}
	out := make(Map, len(d.behaviors))
	for key, value := range d.behaviors {
		out[key] = value
	}
	return out
}
