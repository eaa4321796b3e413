package override

import "github.com/kingrea/refit/behavior"

// Generator produces replacement entries. It receives the capture object
// that will hold the pre-override values of whatever keys it returns.
type Generator func(prior *Captured) behavior.Map

// Apply merges entries into the target's shared behavior map and returns the
// target. Nil target returns nil; nil or empty entries leave the map alone.
func Apply(target *behavior.Definition, entries behavior.Map) *behavior.Definition {
	if target == nil {
		return nil
	}
	target.Merge(entries)
	return target
}

// ApplyIf merges entries only when the condition holds. The condition is
// evaluated exactly once either way. The target comes back unchanged when
// the condition is false.
func ApplyIf(target *behavior.Definition, cond Condition, entries behavior.Map) *behavior.Definition {
	if target == nil {
		return nil
	}
	if !cond.evaluate() {
		return target
	}
	target.Merge(entries)
	return target
}

// Derive invokes the generator once, captures the pre-override values for
// the keys it returned, merges its entries, and returns the target.
//
// The capture object is empty during generator execution and is populated
// after the generator returns, immediately before the merge. A nil generator
// or a nil result map degrades to returning the target untouched. Panics
// from the generator propagate.
func Derive(target *behavior.Definition, gen Generator) *behavior.Definition {
	if target == nil {
		return nil
	}
	if gen == nil {
		return target
	}
	captured := newCaptured()
	entries := gen(captured)
	if len(entries) == 0 {
		return target
	}
	captured.fill(target, entries)
	target.Merge(entries)
	return target
}

// DeriveIf is Derive gated by a condition. The condition is evaluated
// exactly once, before the generator; when it is false the generator is
// never invoked and the target comes back unchanged.
func DeriveIf(target *behavior.Definition, cond Condition, gen Generator) *behavior.Definition {
	if target == nil {
		return nil
	}
	if !cond.evaluate() {
		return target
	}
	return Derive(target, gen)
}
