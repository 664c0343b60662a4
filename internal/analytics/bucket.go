package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// Granularity selects the bucket layout of a growth series.
type Granularity string

const (
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
)

const day = 24 * time.Hour

// ParseGranularity validates a raw granularity string. Empty input maps to week.
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(raw); g {
	case "":
		return GranularityWeek, nil
	case GranularityWeek, GranularityMonth, GranularityQuarter:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, raw)
}

// Layout returns the fixed bucket count and width for g.
//
// quarter is three 30-day buckets, not calendar months. Historical
// dashboards were computed this way, so the approximation is kept.
func (g Granularity) Layout() (count int, width time.Duration, err error) {
	switch g {
	case GranularityWeek:
		return 7, day, nil
	case GranularityMonth:
		return 4, 7 * day, nil
	case GranularityQuarter:
		return 3, 30 * day, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
}

// Bucket is a time range with its counts. Growth buckets from Ranges are
// (RangeStart, RangeEnd], anchored at their end: a timestamp on a boundary
// belongs to the bucket that closes there, so the newest bucket includes the
// anchor itself. Daily buckets from DailyRanges are [RangeStart, RangeEnd).
type Bucket struct {
	Label      string    `json:"label"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	Total      int       `json:"total"`
	Enriched   int       `json:"enriched"`
}

// Bucketizer partitions timestamps into fixed-width buckets and labels them
// in a single configured timezone, so output is identical on every server
// regardless of the host's local zone.
type Bucketizer struct {
	Location *time.Location
}

// NewBucketizer returns a Bucketizer labelling in loc (UTC when nil).
func NewBucketizer(loc *time.Location) Bucketizer {
	return Bucketizer{Location: loc}
}

func (b Bucketizer) loc() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// Ranges generates the empty buckets for g, walking backward from anchor so
// the newest bucket ends exactly at anchor. Buckets are ordered oldest first.
func (b Bucketizer) Ranges(g Granularity, anchor time.Time) ([]Bucket, error) {
	count, width, err := g.Layout()
	if err != nil {
		return nil, err
	}
	out := make([]Bucket, count)
	for i := 0; i < count; i++ {
		end := anchor.Add(-time.Duration(count-1-i) * width)
		start := end.Add(-width)
		out[i] = Bucket{
			Label:      b.label(g, start, end),
			RangeStart: start,
			RangeEnd:   end,
		}
	}
	return out, nil
}

func (b Bucketizer) label(g Granularity, start, end time.Time) string {
	switch g {
	case GranularityWeek:
		return dayLabel(end, b.loc())
	case GranularityMonth:
		t := start.In(b.loc())
		return fmt.Sprintf("Week of %d/%d", int(t.Month()), t.Day())
	default:
		return start.In(b.loc()).Month().String()
	}
}

// Bucketize assigns every record to the bucket with
// RangeStart < CreatedAt <= RangeEnd. Records outside all buckets are
// dropped; callers pre-filter to the same window.
func (b Bucketizer) Bucketize(records []domain.Record, g Granularity, anchor time.Time) ([]Bucket, error) {
	buckets, err := b.Ranges(g, anchor)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		i := Locate(buckets, r.CreatedAt)
		if i < 0 {
			continue
		}
		buckets[i].Total++
		if r.IsEnriched() {
			buckets[i].Enriched++
		}
	}
	return buckets, nil
}

// DailyRanges covers w with contiguous one-day buckets walking backward from
// w.To. The oldest bucket is clipped to w.From. Unlike growth buckets these
// are start-inclusive, [RangeStart, RangeEnd), matching the window itself;
// count into them with LocateDay or DaySeries.
func (b Bucketizer) DailyRanges(w TimeWindow) []Bucket {
	if !w.From.Before(w.To) {
		return []Bucket{}
	}
	n := int((w.Duration() + day - 1) / day)
	out := make([]Bucket, n)
	for i := 0; i < n; i++ {
		end := w.To.Add(-time.Duration(n-1-i) * day)
		start := end.Add(-day)
		if start.Before(w.From) {
			start = w.From
		}
		out[i] = Bucket{
			Label:      dayLabel(end, b.loc()),
			RangeStart: start,
			RangeEnd:   end,
		}
	}
	return out
}

// dayLabel formats the calendar day a bucket ending at end covers, as M/D.
func dayLabel(end time.Time, loc *time.Location) string {
	t := end.Add(-time.Nanosecond).In(loc)
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// Locate returns the index of the bucket with RangeStart < t <= RangeEnd,
// or -1. buckets must be contiguous and ordered oldest first.
func Locate(buckets []Bucket, t time.Time) int {
	i := sort.Search(len(buckets), func(i int) bool { return !buckets[i].RangeEnd.Before(t) })
	if i == len(buckets) || !t.After(buckets[i].RangeStart) {
		return -1
	}
	return i
}

// LocateDay returns the index of the bucket with RangeStart <= t < RangeEnd,
// or -1. It is the lookup for DailyRanges buckets.
func LocateDay(buckets []Bucket, t time.Time) int {
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i].RangeEnd.After(t) })
	if i == len(buckets) || t.Before(buckets[i].RangeStart) {
		return -1
	}
	return i
}

// Series sums value(item) per end-anchored bucket for items whose timestamp
// falls inside one. It backs the overview sparklines.
func Series[T any](buckets []Bucket, items []T, at func(T) time.Time, value func(T) float64) []float64 {
	return sumInto(Locate, buckets, items, at, value)
}

// DaySeries is Series over start-inclusive DailyRanges buckets.
func DaySeries[T any](buckets []Bucket, items []T, at func(T) time.Time, value func(T) float64) []float64 {
	return sumInto(LocateDay, buckets, items, at, value)
}

func sumInto[T any](locate func([]Bucket, time.Time) int, buckets []Bucket, items []T, at func(T) time.Time, value func(T) float64) []float64 {
	out := make([]float64, len(buckets))
	for _, it := range items {
		if i := locate(buckets, at(it)); i >= 0 {
			out[i] += value(it)
		}
	}
	return out
}
