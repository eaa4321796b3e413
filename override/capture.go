package override

import (
	"sort"

	"github.com/kingrea/refit/behavior"
)

// Captured holds the pre-override values of the keys a generator replaced.
//
// It is handed to the generator empty and filled in after the generator
// returns, one entry per key of the generator's result that existed on the
// target beforehand. Reads during generator execution miss; reads from
// closures invoked after the override has been applied see the originals.
type Captured struct {
	values map[string]any
}

func newCaptured() *Captured {
	return &Captured{values: map[string]any{}}
}

// fill records the target's current value for every key in entries. Called
// after the generator returns and before the merge, so the recorded values
// are the pre-override ones.
func (c *Captured) fill(target *behavior.Definition, entries behavior.Map) {
	for key := range entries {
		if value, ok := target.Lookup(key); ok {
			c.values[key] = value
		}
	}
}

// Lookup reads a captured original.
func (c *Captured) Lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.values[key]
	return value, ok
}

// Value returns the captured original or nil when the target had no such
// key before the override.
func (c *Captured) Value(key string) any {
	value, _ := c.Lookup(key)
	return value
}

// Has reports whether the target carried key before the override.
func (c *Captured) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Keys returns the captured key names in sorted order.
func (c *Captured) Keys() []string {
	if c == nil || len(c.values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports how many originals were captured.
func (c *Captured) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}
