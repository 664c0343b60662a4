package analytics

// PercentChange returns the period-over-period change of a scalar metric.
// A zero baseline yields 100 when activity appeared and 0 otherwise, so
// deltas never divide by zero.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round1((current - previous) / previous * 100)
}

// Trend is the direction of a metric or segment between two periods.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// TrendOf classifies a percent change.
func TrendOf(change float64) Trend {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	}
	return TrendFlat
}

// MetricDelta is a KPI with its previous-period value and change.
type MetricDelta struct {
	Name      string    `json:"name"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Change    float64   `json:"change"`
	Trend     Trend     `json:"trend"`
	Sparkline []float64 `json:"sparkline,omitempty"`
}

// Compare builds a MetricDelta using PercentChange.
func Compare(name string, current, previous float64) MetricDelta {
	change := PercentChange(current, previous)
	return MetricDelta{
		Name:     name,
		Current:  current,
		Previous: previous,
		Change:   change,
		Trend:    TrendOf(change),
	}
}
