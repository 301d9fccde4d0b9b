package catalog

import (
	"reflect"
	"testing"
)

func TestSearchTokens(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"Coronary Angioplasty", []string{"coronary", "angioplasty"}},
		{"CT of the Head", []string{"head"}},
		{"ECG", nil},
		{"", nil},
	}

	for _, tt := range tests {
		entry := ProcedureEntry{Name: tt.name}
		if got := entry.SearchTokens(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SearchTokens(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSpecialtyIndex(t *testing.T) {
	entries := []ProcedureEntry{
		{Name: "A", Specialty: "Cardiology"},
		{Name: "B", Specialty: "cardiology "},
		{Name: "C", Specialty: "Orthopedics"},
		{Name: "D"},
	}

	index := SpecialtyIndex(entries)

	if len(index) != 3 {
		t.Fatalf("expected 3 specialty buckets, got %d", len(index))
	}
	if len(index["cardiology"]) != 2 {
		t.Errorf("cardiology bucket = %d entries, want 2", len(index["cardiology"]))
	}
	if index["cardiology"][0].Name != "A" {
		t.Error("bucket should preserve source order")
	}
	if len(index["uncategorized"]) != 1 {
		t.Error("entries without a specialty go to the uncategorized bucket")
	}
}
