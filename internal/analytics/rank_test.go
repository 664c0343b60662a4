package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seg struct {
	key   string
	count int
}

func segCount(s seg) float64 { return float64(s.count) }

func TestRankOrdersByMetric(t *testing.T) {
	segments := []seg{{"a", 3}, {"b", 9}, {"c", 3}, {"d", 5}}
	ranked := Rank(segments, segCount, 0)

	require.Len(t, ranked, 4)
	keys := make([]string, len(ranked))
	for i, r := range ranked {
		keys[i] = r.Segment.key
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, TrendFlat, r.Trend)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, keys)
	assert.Equal(t, 9.0, ranked[0].Value)
}

func TestRankLimit(t *testing.T) {
	segments := []seg{{"a", 1}, {"b", 2}, {"c", 3}}
	ranked := Rank(segments, segCount, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].Segment.key)
	assert.Equal(t, 2, ranked[1].Rank)

	assert.Len(t, Rank(segments, segCount, 10), 3)
	assert.Empty(t, Rank([]seg{}, segCount, 3))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	segments := []seg{{"a", 1}, {"b", 2}}
	Rank(segments, segCount, 0)
	assert.Equal(t, []seg{{"a", 1}, {"b", 2}}, segments)
}

func TestWithTrendUsesSuppliedClassifier(t *testing.T) {
	ranked := Rank([]seg{{"a", 1}, {"b", 2}}, segCount, 0)
	ranked = WithTrend(ranked, func(s seg) Trend {
		if s.key == "b" {
			return TrendUp
		}
		return TrendDown
	})
	assert.Equal(t, TrendUp, ranked[0].Trend)
	assert.Equal(t, TrendDown, ranked[1].Trend)

	ranked = WithTrend(ranked, FlatTrend[seg])
	assert.Equal(t, TrendFlat, ranked[0].Trend)
}
