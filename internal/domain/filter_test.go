package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestRecordFilterMatches(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := Record{
		ID:               "r1",
		CreatedAt:        base,
		City:             strPtr("Austin"),
		Industry:         strPtr("Plumbing"),
		Source:           "google_maps",
		EnrichmentStatus: EnrichmentEnriched,
	}

	tests := []struct {
		name   string
		filter RecordFilter
		want   bool
	}{
		{"empty filter", RecordFilter{}, true},
		{"city match", RecordFilter{Cities: []string{"Austin", "Dallas"}}, true},
		{"city miss", RecordFilter{Cities: []string{"Dallas"}}, false},
		{"industry miss", RecordFilter{Industries: []string{"Roofing"}}, false},
		{"status match", RecordFilter{EnrichmentStatuses: []string{"enriched"}}, true},
		{"source miss", RecordFilter{Sources: []string{"yelp"}}, false},
		{"from inclusive", RecordFilter{From: base}, true},
		{"to exclusive", RecordFilter{To: base}, false},
		{"inside range", RecordFilter{From: base.Add(-time.Hour), To: base.Add(time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordFilterNilCityExcludedWhenCitiesSet(t *testing.T) {
	f := RecordFilter{Cities: []string{"Austin"}}
	if f.Matches(Record{Source: "yelp"}) {
		t.Fatal("record without city should not match a city filter")
	}
}

func TestWithStatusDoesNotMutateOriginal(t *testing.T) {
	f := RecordFilter{EnrichmentStatuses: []string{"pending", "enriched"}, Cities: []string{"Austin"}}
	g, ok := f.WithStatus(EnrichmentEnriched)
	if !ok {
		t.Fatal("WithStatus() ok = false for an allowed status")
	}

	if len(f.EnrichmentStatuses) != 2 {
		t.Fatalf("original filter was mutated: %v", f.EnrichmentStatuses)
	}
	if len(g.EnrichmentStatuses) != 1 || g.EnrichmentStatuses[0] != "enriched" {
		t.Fatalf("WithStatus() = %v", g.EnrichmentStatuses)
	}
	g.Cities[0] = "Dallas"
	if f.Cities[0] != "Austin" {
		t.Fatal("WithStatus() should deep-copy slices")
	}
}

func TestWithStatusIntersectsExistingStatuses(t *testing.T) {
	if g, ok := (RecordFilter{}).WithStatus(EnrichmentEnriched); !ok || len(g.EnrichmentStatuses) != 1 {
		t.Fatalf("WithStatus() on an open filter = %v, %v", g.EnrichmentStatuses, ok)
	}

	pending := RecordFilter{EnrichmentStatuses: []string{"pending"}}
	if _, ok := pending.WithStatus(EnrichmentEnriched); ok {
		t.Fatal("WithStatus() should report no match when the filter excludes the status")
	}
}

func TestParseEnrichmentStatus(t *testing.T) {
	if _, err := ParseEnrichmentStatus("enriched"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseEnrichmentStatus("contacted"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
