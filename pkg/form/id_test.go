package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFieldID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want FieldID
	}{
		{name: "dotted", expr: "address.zip", want: "address.zip"},
		{name: "brackets", expr: "items[0].sku", want: "items.0.sku"},
		{name: "json pointer", expr: "/address/zip", want: "address.zip"},
		{name: "schema pointer", expr: "#/properties/address/properties/zip", want: "address.zip"},
		{name: "schema pointer with items", expr: "#/properties/tags/items", want: "tags"},
		{name: "jsonpath", expr: "$.address.zip", want: "address.zip"},
		{name: "escaped pointer", expr: "/a~1b/c~0d", want: "a/b.c~d"},
		{name: "whitespace", expr: "  name ", want: "name"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFieldID(tc.expr)
			if err != nil {
				t.Fatalf("ParseFieldID(%q): %v", tc.expr, err)
			}
			if got != tc.want {
				t.Fatalf("ParseFieldID(%q) = %q, want %q", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParseFieldID_Empty(t *testing.T) {
	t.Parallel()
	for _, expr := range []string{"", "   ", "#/", "$.", "/"} {
		if _, err := ParseFieldID(expr); err == nil {
			t.Fatalf("ParseFieldID(%q) expected error", expr)
		}
	}
}

func TestValues_SetAndGet(t *testing.T) {
	t.Parallel()

	v := make(values)
	mustSet := func(id FieldID, value any) {
		t.Helper()
		if err := v.set(id, value); err != nil {
			t.Fatalf("set %s: %v", id, err)
		}
	}
	mustSet("person.name", "Ada")
	mustSet("items.1.sku", "B-2")
	mustSet("items.0.sku", "A-1")

	want := map[string]any{
		"person": map[string]any{"name": "Ada"},
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
	}
	if diff := cmp.Diff(want, v.clone()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	got, ok := v.get("items.1.sku")
	if !ok || got != "B-2" {
		t.Fatalf("get items.1.sku = %v, %v", got, ok)
	}
	if _, ok := v.get("items.5.sku"); ok {
		t.Fatalf("expected out of range lookup to miss")
	}
	if err := v.set("person.name.first", "x"); err == nil {
		t.Fatalf("expected error descending into a string")
	}
}

func TestFieldID_RejectsOversizedIndexes(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"items[9999999999]", "items.10000.sku", "/items/99999999999999999999999"} {
		if _, err := ParseFieldID(expr); err == nil {
			t.Fatalf("ParseFieldID(%q) expected error", expr)
		}
	}
	if _, err := ParseFieldID("items[9999]"); err != nil {
		t.Fatalf("largest index rejected: %v", err)
	}

	v := make(values)
	if err := v.set("items.9999999999", "x"); err == nil {
		t.Fatalf("expected oversized index to be refused")
	}
	if _, ok := v.get("items"); ok {
		t.Fatalf("refused write must not leave a partial list behind, got %v", v.clone())
	}
}

func TestValues_CloneIsDeep(t *testing.T) {
	t.Parallel()

	v := make(values)
	_ = v.set("a.b", 1)
	snapshot := v.clone()
	_ = v.set("a.b", 2)

	if got := snapshot["a"].(map[string]any)["b"]; got != 1 {
		t.Fatalf("clone mutated, got %v", got)
	}
}
