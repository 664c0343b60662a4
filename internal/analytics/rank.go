package analytics

import "sort"

// Ranked wraps a segment with its 1-based rank, ranking value and trend.
type Ranked[T any] struct {
	Rank    int     `json:"rank"`
	Segment T       `json:"segment"`
	Value   float64 `json:"value"`
	Trend   Trend   `json:"trend"`
}

// TrendFunc classifies a segment's direction. It is where estimation policy
// lives; Rank itself never estimates.
type TrendFunc[T any] func(T) Trend

// Rank orders segments by descending metric, keeping input order on ties,
// and truncates to limit (limit <= 0 keeps all). Trends are left flat; see
// WithTrend.
func Rank[T any](segments []T, metric func(T) float64, limit int) []Ranked[T] {
	out := make([]Ranked[T], len(segments))
	for i, s := range segments {
		out[i] = Ranked[T]{Segment: s, Value: metric(s), Trend: TrendFlat}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value > out[b].Value })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// WithTrend fills the Trend of every ranked entry using fn.
func WithTrend[T any](ranked []Ranked[T], fn TrendFunc[T]) []Ranked[T] {
	if fn == nil {
		return ranked
	}
	for i := range ranked {
		ranked[i].Trend = fn(ranked[i].Segment)
	}
	return ranked
}

// FlatTrend is the placeholder classifier used when no history is available.
func FlatTrend[T any](T) Trend { return TrendFlat }
