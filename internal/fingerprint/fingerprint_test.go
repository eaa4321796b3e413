package fingerprint

import (
	"strings"
	"testing"

	"github.com/kingrea/refit/behavior"
)

func TestMapDeterministic(t *testing.T) {
	a := Map(behavior.Map{"color": "blue", "size": 3})
	b := Map(behavior.Map{"size": 3, "color": "blue"})
	if a != b {
		t.Fatalf("insertion order changed the digest: %s vs %s", a, b)
	}
}

func TestMapDetectsValueChange(t *testing.T) {
	before := Map(behavior.Map{"color": "blue"})
	after := Map(behavior.Map{"color": "red"})
	if before == after {
		t.Fatalf("value change did not change the digest")
	}
}

func TestMapDetectsKeyChange(t *testing.T) {
	before := Map(behavior.Map{"color": "blue"})
	after := Map(behavior.Map{"colour": "blue"})
	if before == after {
		t.Fatalf("key rename did not change the digest")
	}
}

func TestCallablesHashByType(t *testing.T) {
	first := Map(behavior.Map{"greet": func() string { return "hi" }})
	second := Map(behavior.Map{"greet": func() string { return "hello" }})
	if first != second {
		t.Fatalf("same-signature callables should share a digest")
	}
	other := Map(behavior.Map{"greet": func() int { return 1 }})
	if first == other {
		t.Fatalf("different signatures should differ")
	}
}

func TestNestedValues(t *testing.T) {
	a := Map(behavior.Map{"style": map[string]any{"b": 2, "a": 1}})
	b := Map(behavior.Map{"style": map[string]any{"a": 1, "b": 2}})
	if a != b {
		t.Fatalf("nested map order changed the digest")
	}
	c := Map(behavior.Map{"style": map[string]any{"a": 1, "b": 3}})
	if a == c {
		t.Fatalf("nested value change went unnoticed")
	}
}

func TestStringAndShortForms(t *testing.T) {
	d := Map(behavior.Map{"color": "blue"})
	full := d.String()
	if len(full) != 64 {
		t.Fatalf("hex digest length %d, want 64", len(full))
	}
	if !strings.HasPrefix(full, d.Short()) {
		t.Fatalf("short form %s is not a prefix of %s", d.Short(), full)
	}
}

func TestParseRoundTrip(t *testing.T) {
	d := Map(behavior.Map{"color": "blue"})
	parsed, err := Parse(d.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != d {
		t.Fatalf("round trip mismatch")
	}
	if _, err := Parse("zz"); err == nil {
		t.Fatalf("expected parse failure for bad hex")
	}
	if _, err := Parse("abcd"); err == nil || !strings.Contains(err.Error(), "want 32") {
		t.Fatalf("expected length error, got %v", err)
	}
}
