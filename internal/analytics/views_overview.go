package analytics

import (
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// KPI names used by the overview.
const (
	KPISearches        = "searches"
	KPIBusinessesFound = "businesses_found"
	KPICostPerLead     = "cost_per_lead"
	KPIEnriched        = "enriched"
	KPITotalCost       = "total_cost"
	KPIEnrichmentRate  = "enrichment_rate"
)

// SparklineWindow returns the 7-day window the overview sparklines cover.
func SparklineWindow(w TimeWindow) TimeWindow {
	return TimeWindow{From: w.To.Add(-7 * day), To: w.To}
}

// OverviewInput is the fetched data behind the dashboard overview.
// Recent covers SparklineWindow(Window) and needs Records, Jobs and Costs.
type OverviewInput struct {
	Window   TimeWindow
	Current  PeriodData
	Previous PeriodData
	Recent   PeriodData
}

// DashboardOverview holds the headline KPIs with period-over-period deltas.
type DashboardOverview struct {
	Window          TimeWindow  `json:"window"`
	PreviousWindow  TimeWindow  `json:"previous_window"`
	TotalLeads      int         `json:"total_leads"`
	Searches        MetricDelta `json:"searches"`
	BusinessesFound MetricDelta `json:"businesses_found"`
	CostPerLead     MetricDelta `json:"cost_per_lead"`
	Enriched        MetricDelta `json:"enriched"`
	TotalCost       MetricDelta `json:"total_cost"`
	EnrichmentRate  MetricDelta `json:"enrichment_rate"`
}

// KPIs lists the overview metrics in display order.
func (o DashboardOverview) KPIs() []MetricDelta {
	return []MetricDelta{o.Searches, o.BusinessesFound, o.CostPerLead, o.Enriched, o.TotalCost, o.EnrichmentRate}
}

type periodTotals struct {
	searches int
	found    int
	saved    int
	enriched int
	leads    int
	cost     float64
}

func totalsOf(p PeriodData) periodTotals {
	t := periodTotals{searches: len(p.Jobs), enriched: p.Enriched, leads: p.Leads, cost: p.TotalSpend()}
	for _, j := range p.Jobs {
		t.found += j.BusinessesFound
		t.saved += j.BusinessesSaved
	}
	return t
}

func (t periodTotals) costPerLead() float64 { return Round2(safeDiv(t.cost, float64(t.saved))) }

func (t periodTotals) enrichmentRate() float64 {
	return percentOf(float64(t.enriched), float64(t.leads))
}

// ComputeDashboardOverview compares the current window against the previous
// one with PercentChange and attaches 7-point daily sparklines ending at
// Window.To. Cost per lead is spend over businesses saved.
func (e Engine) ComputeDashboardOverview(in OverviewInput) DashboardOverview {
	cur, prev := totalsOf(in.Current), totalsOf(in.Previous)

	o := DashboardOverview{
		Window:          in.Window,
		PreviousWindow:  PreviousOf(in.Window),
		TotalLeads:      cur.leads,
		Searches:        Compare(KPISearches, float64(cur.searches), float64(prev.searches)),
		BusinessesFound: Compare(KPIBusinessesFound, float64(cur.found), float64(prev.found)),
		CostPerLead:     Compare(KPICostPerLead, cur.costPerLead(), prev.costPerLead()),
		Enriched:        Compare(KPIEnriched, float64(cur.enriched), float64(prev.enriched)),
		TotalCost:       Compare(KPITotalCost, Round2(cur.cost), Round2(prev.cost)),
		EnrichmentRate:  Compare(KPIEnrichmentRate, cur.enrichmentRate(), prev.enrichmentRate()),
	}

	days, _ := e.Bucketizer.Ranges(GranularityWeek, in.Window.To)
	r := in.Recent
	searches := Series(days, r.Jobs, jobCreated, one[domain.JobEntry])
	found := Series(days, r.Jobs, jobCreated, func(j domain.JobEntry) float64 { return float64(j.BusinessesFound) })
	saved := Series(days, r.Jobs, jobCreated, func(j domain.JobEntry) float64 { return float64(j.BusinessesSaved) })
	spend := Series(days, SpendEntries(r.Costs, r.Jobs), costCreated, func(c domain.CostEntry) float64 { return c.CostUSD })
	leads := Series(days, r.Records, recordCreated, one[domain.Record])
	enriched := Series(days, r.Records, recordCreated, enrichedOne)

	cpl := make([]float64, len(days))
	rate := make([]float64, len(days))
	for i := range days {
		spend[i] = Round2(spend[i])
		cpl[i] = Round2(safeDiv(spend[i], saved[i]))
		rate[i] = percentOf(enriched[i], leads[i])
	}

	o.Searches.Sparkline = searches
	o.BusinessesFound.Sparkline = found
	o.CostPerLead.Sparkline = cpl
	o.Enriched.Sparkline = enriched
	o.TotalCost.Sparkline = spend
	o.EnrichmentRate.Sparkline = rate
	return o
}

// SourceShare is a source with its estimated spend.
type SourceShare struct {
	Source        string  `json:"source"`
	Count         int     `json:"count"`
	Enriched      int     `json:"enriched"`
	Percentage    float64 `json:"percentage"`
	EstimatedCost float64 `json:"estimated_cost"`
	CostPerLead   float64 `json:"cost_per_lead"`
}

// SourceBreakdown is the per-source cost view.
type SourceBreakdown struct {
	Window    TimeWindow    `json:"window"`
	Total     int           `json:"total"`
	TotalCost float64       `json:"total_cost"`
	Estimated bool          `json:"estimated"`
	Sources   []SourceShare `json:"sources"`
}

// ComputeSourceBreakdown splits the window's spend across sources. No
// per-lead cost join exists, so costs are estimates from the engine's
// CostAllocator and the result is marked Estimated.
func (e Engine) ComputeSourceBreakdown(w TimeWindow, records []domain.Record, costs []domain.CostEntry, jobs []domain.JobEntry) SourceBreakdown {
	spend := TotalSpend(costs, jobs)
	stats := e.ComputeSourceStats(records)

	out := SourceBreakdown{
		Window:    w,
		Total:     stats.Total,
		TotalCost: Round2(spend),
		Estimated: true,
		Sources:   make([]SourceShare, 0, len(stats.Sources)),
	}
	for _, g := range stats.Sources {
		est := e.allocate(g.Count, stats.Total, spend)
		out.Sources = append(out.Sources, SourceShare{
			Source:        g.Key,
			Count:         g.Count,
			Enriched:      int(g.SumFields[SumEnriched]),
			Percentage:    g.Percentage,
			EstimatedCost: est,
			CostPerLead:   Round2(safeDiv(est, float64(g.Count))),
		})
	}
	return out
}

// TimelinePoint is one day of the activity timeline.
type TimelinePoint struct {
	Label           string    `json:"label"`
	RangeStart      time.Time `json:"range_start"`
	RangeEnd        time.Time `json:"range_end"`
	Leads           int       `json:"leads"`
	Enriched        int       `json:"enriched"`
	Searches        int       `json:"searches"`
	BusinessesFound int       `json:"businesses_found"`
	Cost            float64   `json:"cost"`
}

// Timeline is the day-by-day activity view of a window.
type Timeline struct {
	Window TimeWindow      `json:"window"`
	Points []TimelinePoint `json:"points"`
}

// ComputeTimeline lays records, jobs and spend over daily buckets covering w.
// An item stamped at a day boundary counts toward the day that starts there.
func (e Engine) ComputeTimeline(w TimeWindow, records []domain.Record, jobs []domain.JobEntry, costs []domain.CostEntry) Timeline {
	days := e.Bucketizer.DailyRanges(w)
	leads := DaySeries(days, records, recordCreated, one[domain.Record])
	enriched := DaySeries(days, records, recordCreated, enrichedOne)
	searches := DaySeries(days, jobs, jobCreated, one[domain.JobEntry])
	found := DaySeries(days, jobs, jobCreated, func(j domain.JobEntry) float64 { return float64(j.BusinessesFound) })
	spend := DaySeries(days, SpendEntries(costs, jobs), costCreated, func(c domain.CostEntry) float64 { return c.CostUSD })

	points := make([]TimelinePoint, len(days))
	for i, d := range days {
		points[i] = TimelinePoint{
			Label:           d.Label,
			RangeStart:      d.RangeStart,
			RangeEnd:        d.RangeEnd,
			Leads:           int(leads[i]),
			Enriched:        int(enriched[i]),
			Searches:        int(searches[i]),
			BusinessesFound: int(found[i]),
			Cost:            Round2(spend[i]),
		}
	}
	return Timeline{Window: w, Points: points}
}
