package domain

import (
	"fmt"
	"time"
)

// EnrichmentStatus enumerates the pipeline stages of a business record.
type EnrichmentStatus string

const (
	EnrichmentPending  EnrichmentStatus = "pending"
	EnrichmentEnriched EnrichmentStatus = "enriched"
	EnrichmentFailed   EnrichmentStatus = "failed"
)

// EnrichmentStatuses lists every status in pipeline order.
func EnrichmentStatuses() []EnrichmentStatus {
	return []EnrichmentStatus{EnrichmentPending, EnrichmentEnriched, EnrichmentFailed}
}

// Valid reports whether s is a known enrichment status.
func (s EnrichmentStatus) Valid() bool {
	switch s {
	case EnrichmentPending, EnrichmentEnriched, EnrichmentFailed:
		return true
	}
	return false
}

// ParseEnrichmentStatus converts a raw string into an EnrichmentStatus.
func ParseEnrichmentStatus(raw string) (EnrichmentStatus, error) {
	s := EnrichmentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown enrichment status %q", raw)
	}
	return s, nil
}

// Record is a scraped business lead as stored by the CRM. The analytics
// engine only reads records; it never mutates them.
type Record struct {
	ID               string           `json:"id" db:"id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
	City             *string          `json:"city" db:"city"`
	Industry         *string          `json:"industry" db:"industry"`
	Source           string           `json:"source" db:"source"`
	EnrichmentStatus EnrichmentStatus `json:"enrichment_status" db:"enrichment_status"`
}

// IsEnriched reports whether contact data was found for the record.
func (r Record) IsEnriched() bool { return r.EnrichmentStatus == EnrichmentEnriched }
