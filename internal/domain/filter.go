package domain

import (
	"slices"
	"time"
)

// RecordFilter selects records for analytics. Empty slices and zero times
// mean "no restriction". Repositories translate it into query clauses; the
// same value doubles as an in-memory predicate via Matches.
type RecordFilter struct {
	Cities             []string  `json:"cities,omitempty"`
	Industries         []string  `json:"industries,omitempty"`
	EnrichmentStatuses []string  `json:"enrichment_statuses,omitempty"`
	Sources            []string  `json:"sources,omitempty"`
	From               time.Time `json:"from,omitempty"`
	To                 time.Time `json:"to,omitempty"`
}

// HasDateRange reports whether either bound is set.
func (f RecordFilter) HasDateRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// WithStatus returns a copy of f additionally restricted to enrichment
// status s. ok is false when f already excludes s, so no record can match.
func (f RecordFilter) WithStatus(s EnrichmentStatus) (out RecordFilter, ok bool) {
	if len(f.EnrichmentStatuses) > 0 && !slices.Contains(f.EnrichmentStatuses, string(s)) {
		return RecordFilter{}, false
	}
	out = f.clone()
	out.EnrichmentStatuses = []string{string(s)}
	return out, true
}

// WithRange returns a copy of f bounded to [from, to).
func (f RecordFilter) WithRange(from, to time.Time) RecordFilter {
	out := f.clone()
	out.From, out.To = from, to
	return out
}

// Matches reports whether r satisfies every clause of f. The date range is
// half-open: From <= CreatedAt < To.
func (f RecordFilter) Matches(r Record) bool {
	if len(f.Cities) > 0 && (r.City == nil || !slices.Contains(f.Cities, *r.City)) {
		return false
	}
	if len(f.Industries) > 0 && (r.Industry == nil || !slices.Contains(f.Industries, *r.Industry)) {
		return false
	}
	if len(f.EnrichmentStatuses) > 0 && !slices.Contains(f.EnrichmentStatuses, string(r.EnrichmentStatus)) {
		return false
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, r.Source) {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func (f RecordFilter) clone() RecordFilter {
	out := f
	out.Cities = slices.Clone(f.Cities)
	out.Industries = slices.Clone(f.Industries)
	out.EnrichmentStatuses = slices.Clone(f.EnrichmentStatuses)
	out.Sources = slices.Clone(f.Sources)
	return out
}
