package overlay

import (
	"strings"
	"testing"
)

type flagMap map[string]bool

func (f flagMap) Flag(name string) bool { return f[name] }

func TestWhenClauseHolds(t *testing.T) {
	t.Setenv("REFIT_TEST_BETA", "true")
	t.Setenv("REFIT_TEST_OFF", "no")
	t.Setenv("REFIT_TEST_JUNK", "maybe")

	flags := flagMap{"dark_mode": true, "compact": false}

	tests := []struct {
		name   string
		clause *WhenClause
		want   bool
	}{
		{"nil clause always holds", nil, true},
		{"flag true", &WhenClause{Flag: "dark_mode"}, true},
		{"flag false", &WhenClause{Flag: "compact"}, false},
		{"flag unknown", &WhenClause{Flag: "missing"}, false},
		{"env true", &WhenClause{Env: "REFIT_TEST_BETA"}, true},
		{"env false", &WhenClause{Env: "REFIT_TEST_OFF"}, false},
		{"env unparseable", &WhenClause{Env: "REFIT_TEST_JUNK"}, false},
		{"env unset", &WhenClause{Env: "REFIT_TEST_UNSET"}, false},
		{"flag and env both true", &WhenClause{Flag: "dark_mode", Env: "REFIT_TEST_BETA"}, true},
		{"flag true env false", &WhenClause{Flag: "dark_mode", Env: "REFIT_TEST_OFF"}, false},
		{"not inverts", &WhenClause{Flag: "compact", Not: true}, true},
		{"not alone never holds", &WhenClause{Not: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.clause.Holds(flags); got != tt.want {
				t.Fatalf("Holds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWhenClauseString(t *testing.T) {
	if got := (*WhenClause)(nil).String(); got != "always" {
		t.Fatalf("nil clause string: %s", got)
	}
	clause := &WhenClause{Flag: "dark_mode", Env: "REFIT_BETA"}
	if got := clause.String(); got != "flag dark_mode and env REFIT_BETA" {
		t.Fatalf("unexpected clause string: %s", got)
	}
	clause.Not = true
	if got := clause.String(); got != "not (flag dark_mode and env REFIT_BETA)" {
		t.Fatalf("unexpected negated string: %s", got)
	}
}

func TestDocumentValidate(t *testing.T) {
	valid := Document{
		ID:      "dark-button",
		Version: "1.0.0",
		Target:  "button",
		Set:     map[string]any{"color": "#10131a"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Document)
		wantErr string
	}{
		{"missing id", func(d *Document) { d.ID = " " }, "id is required"},
		{"missing version", func(d *Document) { d.Version = "" }, "version is required"},
		{"missing target", func(d *Document) { d.Target = "" }, "target is required"},
		{"empty set", func(d *Document) { d.Set = nil }, "at least one set entry"},
		{"empty when", func(d *Document) { d.When = &WhenClause{} }, "when clause is empty"},
		{"self requirement", func(d *Document) { d.Requires = []string{"dark-button"} }, "requires itself"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid
			tt.mutate(&doc)
			err := doc.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDocumentNormalizedDedupesRequires(t *testing.T) {
	doc := Document{
		ID:       " dark-button ",
		Version:  "1.0.0",
		Target:   " button ",
		Set:      map[string]any{" color ": "#10131a", "  ": "dropped"},
		Requires: []string{" base ", "base", "", "other"},
	}
	normalized := doc.Normalized()
	if normalized.ID != "dark-button" || normalized.Target != "button" {
		t.Fatalf("fields not trimmed: %+v", normalized)
	}
	if _, ok := normalized.Set["color"]; !ok || len(normalized.Set) != 1 {
		t.Fatalf("set keys not normalized: %v", normalized.Set)
	}
	if len(normalized.Requires) != 2 || normalized.Requires[0] != "base" || normalized.Requires[1] != "other" {
		t.Fatalf("requires not deduped: %v", normalized.Requires)
	}
}
