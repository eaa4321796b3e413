package override

type conditionKind int

const (
	conditionEnabled conditionKind = iota
	conditionPredicate
)

// Condition gates an override. Build one with Enabled or Predicate; the zero
// Condition never applies.
type Condition struct {
	kind    conditionKind
	enabled bool
	fn      func() bool
}

// Enabled gates on a plain boolean.
func Enabled(v bool) Condition {
	return Condition{kind: conditionEnabled, enabled: v}
}

// Predicate gates on a callable. The callable runs exactly once per
// ApplyIf/DeriveIf call, before any replacement handling, even when its
// answer is false. A nil callable never applies. Panics propagate to the
// caller.
func Predicate(fn func() bool) Condition {
	return Condition{kind: conditionPredicate, fn: fn}
}

func (c Condition) evaluate() bool {
	switch c.kind {
	case conditionPredicate:
		if c.fn == nil {
			return false
		}
		return c.fn()
	default:
		return c.enabled
	}
}
