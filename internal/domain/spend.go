package domain

import "time"

// CostEntry is one billed call to an external service (scraper, enrichment
// API, geocoder...).
type CostEntry struct {
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Service       string    `json:"service" db:"service"`
	OperationType string    `json:"operation_type" db:"operation_type"`
	CostUSD       float64   `json:"cost_usd" db:"cost_usd"`
}

// Job statuses reported by the scraping pipeline.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobRunning   = "running"
)

// JobEntry is one scrape/search job with its yield and scraper spend.
type JobEntry struct {
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	Status          string    `json:"status" db:"status"`
	BusinessesFound int       `json:"businesses_found" db:"businesses_found"`
	BusinessesSaved int       `json:"businesses_saved" db:"businesses_saved"`
	ApifyCost       float64   `json:"apify_cost" db:"apify_cost"`
}
