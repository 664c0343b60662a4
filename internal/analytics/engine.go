package analytics

import (
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// DefaultTopN is the group-list cutoff for location and comparison views.
const DefaultTopN = 10

// Engine carries the per-deployment parameters the views need. It holds no
// mutable state; a single value can serve every request.
type Engine struct {
	Bucketizer Bucketizer
	Labels     StageLabels
	TopN       int

	// SuccessRates are per-service success ratios shown in the cost view.
	// They are configured estimates, not measured values.
	SuccessRates map[string]float64

	// Allocate estimates a segment's share of spend. Defaults to
	// ProportionalAllocation.
	Allocate CostAllocator
}

// NewEngine returns an Engine labelling in loc with stock defaults.
func NewEngine(loc *time.Location) Engine {
	return Engine{
		Bucketizer:   NewBucketizer(loc),
		Labels:       DefaultStageLabels(),
		TopN:         DefaultTopN,
		SuccessRates: DefaultSuccessRates(),
		Allocate:     ProportionalAllocation,
	}
}

// Location returns the timezone used for labels and weekday/hour math.
func (e Engine) Location() *time.Location { return e.Bucketizer.loc() }

func (e Engine) topN() int {
	if e.TopN <= 0 {
		return DefaultTopN
	}
	return e.TopN
}

func (e Engine) labels() StageLabels {
	if e.Labels == nil {
		return DefaultStageLabels()
	}
	return e.Labels
}

func (e Engine) allocate(count, total int, spend float64) float64 {
	if e.Allocate == nil {
		return ProportionalAllocation(count, total, spend)
	}
	return e.Allocate(count, total, spend)
}

// CostAllocator estimates the spend attributable to a segment holding count
// of total records. Real per-lead cost joins do not exist, so every
// per-segment cost figure goes through one of these.
type CostAllocator func(count, total int, spend float64) float64

// ProportionalAllocation splits spend by record share.
func ProportionalAllocation(count, total int, spend float64) float64 {
	return Round2(safeDiv(float64(count), float64(total)) * spend)
}

// DefaultSuccessRates are placeholder success ratios per external service,
// used until real per-call outcomes are logged.
func DefaultSuccessRates() map[string]float64 {
	return map[string]float64{
		"apify":         0.95,
		"google_places": 0.98,
		"hunter":        0.80,
		"openai":        0.99,
	}
}

// PeriodData is everything fetched for one window of the overview.
type PeriodData struct {
	Leads    int
	Enriched int
	Jobs     []domain.JobEntry
	Costs    []domain.CostEntry
	Records  []domain.Record
}

// TotalSpend is cost-log spend plus scraper spend carried on jobs.
func (p PeriodData) TotalSpend() float64 { return TotalSpend(p.Costs, p.Jobs) }

// TotalSpend sums cost entries and job scraper costs. The cost log covers
// enrichment and API services; scraper runs bill on the job row.
func TotalSpend(costs []domain.CostEntry, jobs []domain.JobEntry) float64 {
	var total float64
	for _, c := range costs {
		total += c.CostUSD
	}
	for _, j := range jobs {
		total += j.ApifyCost
	}
	return total
}

// SpendEntries flattens job scraper costs into cost entries so both sources
// can be grouped together.
func SpendEntries(costs []domain.CostEntry, jobs []domain.JobEntry) []domain.CostEntry {
	out := make([]domain.CostEntry, 0, len(costs)+len(jobs))
	out = append(out, costs...)
	for _, j := range jobs {
		if j.ApifyCost == 0 {
			continue
		}
		out = append(out, domain.CostEntry{
			CreatedAt:     j.CreatedAt,
			Service:       "apify",
			OperationType: "scrape",
			CostUSD:       j.ApifyCost,
		})
	}
	return out
}

func recordCreated(r domain.Record) time.Time { return r.CreatedAt }
func jobCreated(j domain.JobEntry) time.Time { return j.CreatedAt }
func costCreated(c domain.CostEntry) time.Time { return c.CreatedAt }

func one[T any](T) float64 { return 1 }
