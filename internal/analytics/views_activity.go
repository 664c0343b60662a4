package analytics

import (
	"fmt"
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// FunnelCounts are the raw stage totals of the lead funnel.
type FunnelCounts struct {
	Scraped   int `json:"scraped"`
	Enriched  int `json:"enriched"`
	Contacted int `json:"contacted"`
	Responded int `json:"responded"`
}

// FunnelStats is the conversion funnel view.
type FunnelStats struct {
	Stages            []FunnelStage `json:"stages"`
	OverallConversion float64       `json:"overall_conversion"`
	Consistent        bool          `json:"consistent"`
}

// ComputeFunnelStats runs Scraped -> Enriched -> Contacted -> Responded.
// Inconsistent counts are flagged, not corrected.
func (e Engine) ComputeFunnelStats(c FunnelCounts) FunnelStats {
	stages := ComputeFunnel([]StageCount{
		{Name: StageScraped, Count: c.Scraped},
		{Name: StageEnriched, Count: c.Enriched},
		{Name: StageContacted, Count: c.Contacted},
		{Name: StageResponded, Count: c.Responded},
	})
	return FunnelStats{
		Stages:            stages,
		OverallConversion: OverallConversion(stages),
		Consistent:        CheckFunnel(stages) == nil,
	}
}

// Activity selects the timestamps a heatmap is built from.
type Activity string

const (
	// ActivityLeads uses record creation times.
	ActivityLeads Activity = "leads"
	// ActivityEnrichments uses the last update of enriched records.
	ActivityEnrichments Activity = "enrichments"
	// ActivitySearches uses job creation times.
	ActivitySearches Activity = "searches"
)

// ParseActivity validates a raw activity type. Empty input maps to leads.
func ParseActivity(raw string) (Activity, error) {
	switch a := Activity(raw); a {
	case "":
		return ActivityLeads, nil
	case ActivityLeads, ActivityEnrichments, ActivitySearches:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidActivity, raw)
}

// UsesJobs reports whether a needs job entries rather than records.
func (a Activity) UsesJobs() bool { return a == ActivitySearches }

// HeatmapStats is the weekday x hour activity view.
type HeatmapStats struct {
	Activity Activity      `json:"activity"`
	Total    int           `json:"total"`
	Grid     []HeatmapCell `json:"grid"`
	MaxValue int           `json:"max_value"`
	Peak     HeatmapCell   `json:"peak"`
	Timezone string        `json:"timezone"`
}

// ComputeHeatmapStats builds the 7x24 grid for a in the engine timezone.
// Weekday 0 is Sunday.
func (e Engine) ComputeHeatmapStats(a Activity, records []domain.Record, jobs []domain.JobEntry) HeatmapStats {
	var times []time.Time
	switch a {
	case ActivitySearches:
		times = make([]time.Time, 0, len(jobs))
		for _, j := range jobs {
			times = append(times, j.CreatedAt)
		}
	case ActivityEnrichments:
		for _, r := range records {
			if r.IsEnriched() {
				times = append(times, r.UpdatedAt)
			}
		}
	default:
		times = make([]time.Time, 0, len(records))
		for _, r := range records {
			times = append(times, r.CreatedAt)
		}
	}

	loc := e.Location()
	hm := BuildHeatmap(times,
		func(t time.Time) int { return int(t.In(loc).Weekday()) },
		func(t time.Time) int { return t.In(loc).Hour() },
	)
	return HeatmapStats{
		Activity: a,
		Total:    len(times),
		Grid:     hm.Grid,
		MaxValue: hm.MaxValue,
		Peak:     hm.Peak(),
		Timezone: loc.String(),
	}
}
