package analytics

import "github.com/ignite/leadgen-crm/internal/domain"

// StageLabels maps enrichment statuses to dashboard display labels.
// It is a value passed into views, never a package-level mutable table.
type StageLabels map[domain.EnrichmentStatus]string

// DefaultStageLabels returns the stock display labels.
func DefaultStageLabels() StageLabels {
	return StageLabels{
		domain.EnrichmentPending:  "New Leads",
		domain.EnrichmentEnriched: "Enriched",
		domain.EnrichmentFailed:   "Failed",
	}
}

// Label returns the display label for s, falling back to the raw status.
func (l StageLabels) Label(s domain.EnrichmentStatus) string {
	if v, ok := l[s]; ok {
		return v
	}
	return string(s)
}
