package form

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapErrorPayload(t *testing.T) {
	t.Parallel()

	known := []FieldID{"email", "address", "address.zip", "items.sku"}

	tests := []struct {
		name    string
		payload map[string][]string
		want    PayloadMapping
	}{
		{
			name:    "empty payload",
			payload: nil,
			want:    PayloadMapping{},
		},
		{
			name: "longest match wins",
			payload: map[string][]string{
				"address.zip": {"bad zip"},
			},
			want: PayloadMapping{Fields: map[FieldID][]string{"address.zip": {"bad zip"}}},
		},
		{
			name: "nested key falls back to parent field",
			payload: map[string][]string{
				"address.street.line1": {"required"},
			},
			want: PayloadMapping{Fields: map[FieldID][]string{"address": {"required"}}},
		},
		{
			name: "envelope and indexes are ignored",
			payload: map[string][]string{
				"data.attributes.items[3].sku": {"unknown"},
			},
			want: PayloadMapping{Fields: map[FieldID][]string{"items.sku": {"unknown"}}},
		},
		{
			name: "form level keys and duplicates",
			payload: map[string][]string{
				"__all__":  {"retry", " retry "},
				"nickname": {"not allowed"},
				"email":    {"", "  "},
			},
			want: PayloadMapping{Form: []string{"not allowed", "retry"}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MapErrorPayload(known, tc.payload)
			sort.Strings(got.Form)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
