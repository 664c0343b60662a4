package analytics

import (
	"fmt"
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// LocationStats is the geography dashboard.
type LocationStats struct {
	TotalBusinesses  int         `json:"total_businesses"`
	UniqueCities     int         `json:"unique_cities"`
	UniqueIndustries int         `json:"unique_industries"`
	Cities           []GroupStat `json:"cities"`
	Industries       []GroupStat `json:"industries"`
}

// ComputeLocationStats groups records by city and industry. Both lists are
// truncated to the engine's TopN while percentages use the grand total.
// Unique counts include the "Unknown" group when present.
func (e Engine) ComputeLocationStats(records []domain.Record) LocationStats {
	opts := GroupOptions[domain.Record]{Sentinel: UnknownLocation}
	cities := GroupBy(records, PtrKey(func(r domain.Record) *string { return r.City }), opts)
	industries := GroupBy(records, PtrKey(func(r domain.Record) *string { return r.Industry }), opts)

	return LocationStats{
		TotalBusinesses:  cities.Total,
		UniqueCities:     len(cities.Groups),
		UniqueIndustries: len(industries.Groups),
		Cities:           truncate(cities.Groups, e.topN()),
		Industries:       truncate(industries.Groups, e.topN()),
	}
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// SourceStats is the lead-source dashboard.
type SourceStats struct {
	Total   int         `json:"total"`
	Sources []GroupStat `json:"sources"`
}

// SumEnriched is the SumFields key holding the enriched count of a group.
const SumEnriched = "enriched"

// ComputeSourceStats groups every record by source ("unknown" when blank)
// and carries the enriched count per source.
func (e Engine) ComputeSourceStats(records []domain.Record) SourceStats {
	res := GroupBy(records, StringKey(func(r domain.Record) string { return r.Source }), GroupOptions[domain.Record]{
		Sentinel:  UnknownSource,
		SumFields: map[string]func(domain.Record) float64{SumEnriched: enrichedOne},
	})
	return SourceStats{Total: res.Total, Sources: res.Groups}
}

func enrichedOne(r domain.Record) float64 {
	if r.IsEnriched() {
		return 1
	}
	return 0
}

func failedOne(r domain.Record) float64 {
	if r.EnrichmentStatus == domain.EnrichmentFailed {
		return 1
	}
	return 0
}

// PipelineStage is one enrichment status with its display label.
type PipelineStage struct {
	Status     domain.EnrichmentStatus `json:"status"`
	Label      string                  `json:"label"`
	Count      int                     `json:"count"`
	Percentage float64                 `json:"percentage"`
}

// PipelineStats is the enrichment pipeline dashboard.
type PipelineStats struct {
	Total          int             `json:"total"`
	Stages         []PipelineStage `json:"stages"`
	EnrichmentRate float64         `json:"enrichment_rate"`
}

// ComputePipelineStats always emits pending, enriched and failed in that
// order, zero-filled.
func (e Engine) ComputePipelineStats(records []domain.Record) PipelineStats {
	res := GroupBy(records, StringKey(func(r domain.Record) string { return string(r.EnrichmentStatus) }),
		GroupOptions[domain.Record]{Sentinel: string(domain.EnrichmentPending)})
	byKey := make(map[string]GroupStat, len(res.Groups))
	for _, g := range res.Groups {
		byKey[g.Key] = g
	}

	labels := e.labels()
	stages := make([]PipelineStage, 0, 3)
	for _, s := range domain.EnrichmentStatuses() {
		g := byKey[string(s)]
		stages = append(stages, PipelineStage{
			Status:     s,
			Label:      labels.Label(s),
			Count:      g.Count,
			Percentage: g.Percentage,
		})
	}
	return PipelineStats{
		Total:          res.Total,
		Stages:         stages,
		EnrichmentRate: byKey[string(domain.EnrichmentEnriched)].Percentage,
	}
}

// GrowthSeries is the lead growth chart.
type GrowthSeries struct {
	Granularity    Granularity `json:"granularity"`
	Buckets        []Bucket    `json:"buckets"`
	Total          int         `json:"total"`
	Enriched       int         `json:"enriched"`
	EnrichmentRate float64     `json:"enrichment_rate"`
}

// GrowthWindow returns the window Bucketize covers for g at anchor, so
// callers can fetch exactly the records that will be bucketed.
func (e Engine) GrowthWindow(g Granularity, anchor time.Time) (TimeWindow, error) {
	count, width, err := g.Layout()
	if err != nil {
		return TimeWindow{}, err
	}
	return TimeWindow{From: anchor.Add(-time.Duration(count) * width), To: anchor}, nil
}

// ComputeGrowthSeries buckets records for g ending at anchor.
func (e Engine) ComputeGrowthSeries(records []domain.Record, g Granularity, anchor time.Time) (GrowthSeries, error) {
	buckets, err := e.Bucketizer.Bucketize(records, g, anchor)
	if err != nil {
		return GrowthSeries{}, err
	}
	gs := GrowthSeries{Granularity: g, Buckets: buckets}
	for _, b := range buckets {
		gs.Total += b.Total
		gs.Enriched += b.Enriched
	}
	gs.EnrichmentRate = percentOf(float64(gs.Enriched), float64(gs.Total))
	return gs, nil
}

// Dimension is a segment axis for comparisons.
type Dimension string

const (
	DimensionCity     Dimension = "city"
	DimensionIndustry Dimension = "industry"
	DimensionSource   Dimension = "source"
)

// ParseDimension validates a raw dimension. Empty input maps to city.
func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(raw); d {
	case "":
		return DimensionCity, nil
	case DimensionCity, DimensionIndustry, DimensionSource:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDimension, raw)
}

func (d Dimension) key() (KeyFunc[domain.Record], string) {
	switch d {
	case DimensionIndustry:
		return PtrKey(func(r domain.Record) *string { return r.Industry }), UnknownLocation
	case DimensionSource:
		return StringKey(func(r domain.Record) string { return r.Source }), UnknownSource
	default:
		return PtrKey(func(r domain.Record) *string { return r.City }), UnknownLocation
	}
}

// SegmentStat is one segment of a comparison.
type SegmentStat struct {
	Key            string  `json:"key"`
	Count          int     `json:"count"`
	Enriched       int     `json:"enriched"`
	Failed         int     `json:"failed"`
	EnrichmentRate float64 `json:"enrichment_rate"`
	Percentage     float64 `json:"percentage"`
	EstimatedCost  float64 `json:"estimated_cost"`
}

// ComparisonStats compares segments along one dimension.
type ComparisonStats struct {
	Dimension Dimension     `json:"dimension"`
	Total     int           `json:"total"`
	TotalCost float64       `json:"total_cost"`
	Segments  []SegmentStat `json:"segments"`
}

const sumFailed = "failed"

// segments builds every segment of d, ordered by count, untruncated.
func (e Engine) segments(records []domain.Record, d Dimension, spend float64) ([]SegmentStat, int) {
	key, sentinel := d.key()
	res := GroupBy(records, key, GroupOptions[domain.Record]{
		Sentinel: sentinel,
		SumFields: map[string]func(domain.Record) float64{
			SumEnriched: enrichedOne,
			sumFailed:   failedOne,
		},
	})
	out := make([]SegmentStat, 0, len(res.Groups))
	for _, g := range res.Groups {
		enriched := int(g.SumFields[SumEnriched])
		out = append(out, SegmentStat{
			Key:            g.Key,
			Count:          g.Count,
			Enriched:       enriched,
			Failed:         int(g.SumFields[sumFailed]),
			EnrichmentRate: percentOf(float64(enriched), float64(g.Count)),
			Percentage:     g.Percentage,
			EstimatedCost:  e.allocate(g.Count, res.Total, spend),
		})
	}
	return out, res.Total
}

// ComputeComparisonStats groups records along d, truncated to TopN.
// EstimatedCost is allocated from spend by the engine's CostAllocator.
func (e Engine) ComputeComparisonStats(records []domain.Record, d Dimension, spend float64) ComparisonStats {
	segs, total := e.segments(records, d, spend)
	return ComparisonStats{
		Dimension: d,
		Total:     total,
		TotalCost: Round2(spend),
		Segments:  truncate(segs, e.topN()),
	}
}

// RankMetric selects the value top performers are ordered by.
type RankMetric string

const (
	MetricCount          RankMetric = "count"
	MetricEnriched       RankMetric = "enriched"
	MetricEnrichmentRate RankMetric = "enrichment_rate"
	MetricCost           RankMetric = "cost"
)

// ParseRankMetric validates a raw metric. Empty input maps to count.
func ParseRankMetric(raw string) (RankMetric, error) {
	switch m := RankMetric(raw); m {
	case "":
		return MetricCount, nil
	case MetricCount, MetricEnriched, MetricEnrichmentRate, MetricCost:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMetric, raw)
}

// Value extracts m from a segment.
func (m RankMetric) Value(s SegmentStat) float64 {
	switch m {
	case MetricEnriched:
		return float64(s.Enriched)
	case MetricEnrichmentRate:
		return s.EnrichmentRate
	case MetricCost:
		return s.EstimatedCost
	default:
		return float64(s.Count)
	}
}

// TopPerformers is the ranked segment leaderboard.
type TopPerformers struct {
	Dimension  Dimension             `json:"dimension"`
	Metric     RankMetric            `json:"metric"`
	Total      int                   `json:"total"`
	Performers []Ranked[SegmentStat] `json:"performers"`
}

// ComputeTopPerformers ranks every segment of d by m and keeps limit
// entries. trend classifies each segment; nil means FlatTrend.
func (e Engine) ComputeTopPerformers(records []domain.Record, d Dimension, m RankMetric, limit int, spend float64, trend TrendFunc[SegmentStat]) TopPerformers {
	segs, total := e.segments(records, d, spend)
	if trend == nil {
		trend = FlatTrend[SegmentStat]
	}
	ranked := WithTrend(Rank(segs, m.Value, limit), trend)
	return TopPerformers{Dimension: d, Metric: m, Total: total, Performers: ranked}
}

// PeriodTrend classifies segments by count change against a previous
// period's records grouped along the same dimension.
func PeriodTrend(previous []domain.Record, d Dimension) TrendFunc[SegmentStat] {
	key, sentinel := d.key()
	prev := GroupBy(previous, key, GroupOptions[domain.Record]{Sentinel: sentinel})
	counts := make(map[string]int, len(prev.Groups))
	for _, g := range prev.Groups {
		counts[g.Key] = g.Count
	}
	return func(s SegmentStat) Trend {
		return TrendOf(PercentChange(float64(s.Count), float64(counts[s.Key])))
	}
}
