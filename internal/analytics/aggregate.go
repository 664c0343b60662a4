package analytics

import "sort"

// Sentinel labels for records whose grouping key is missing.
const (
	UnknownLocation = "Unknown"
	UnknownSource   = "unknown"
)

// GroupStat is one group of a GroupBy pass.
type GroupStat struct {
	Key        string             `json:"key"`
	Count      int                `json:"count"`
	SumFields  map[string]float64 `json:"sum_fields,omitempty"`
	Percentage float64            `json:"percentage"`
}

// GroupResult holds the ordered groups and the full, untruncated total.
type GroupResult struct {
	Groups []GroupStat `json:"groups"`
	Total  int         `json:"total"`
}

// KeyFunc extracts the grouping key of an item. ok=false marks a missing key,
// which is counted under GroupOptions.Sentinel.
type KeyFunc[T any] func(T) (key string, ok bool)

// GroupOptions tunes a GroupBy pass.
type GroupOptions[T any] struct {
	// TopN truncates the group list (0 = keep all). Total and percentages
	// still use the full population.
	TopN int

	// Sentinel labels items with a missing key. Defaults to UnknownLocation.
	Sentinel string

	// SumFields accumulates named numeric fields per group in the same pass.
	SumFields map[string]func(T) float64
}

// GroupBy counts items per key in a single traversal. Groups are ordered by
// descending count; ties keep first-seen order. Every item lands in exactly
// one group.
func GroupBy[T any](items []T, key KeyFunc[T], opts GroupOptions[T]) GroupResult {
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = UnknownLocation
	}

	index := make(map[string]int)
	var groups []GroupStat
	for _, it := range items {
		k, ok := key(it)
		if !ok || k == "" {
			k = sentinel
		}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			g := GroupStat{Key: k}
			if len(opts.SumFields) > 0 {
				g.SumFields = make(map[string]float64, len(opts.SumFields))
				for name := range opts.SumFields {
					g.SumFields[name] = 0
				}
			}
			groups = append(groups, g)
		}
		groups[i].Count++
		for name, fn := range opts.SumFields {
			groups[i].SumFields[name] += fn(it)
		}
	}

	total := len(items)
	for i := range groups {
		groups[i].Percentage = percentOf(float64(groups[i].Count), float64(total))
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Count > groups[b].Count })

	if opts.TopN > 0 && len(groups) > opts.TopN {
		groups = groups[:opts.TopN]
	}
	if groups == nil {
		groups = []GroupStat{}
	}
	return GroupResult{Groups: groups, Total: total}
}

// PtrKey adapts an optional string field into a KeyFunc.
func PtrKey[T any](field func(T) *string) KeyFunc[T] {
	return func(it T) (string, bool) {
		p := field(it)
		if p == nil {
			return "", false
		}
		return *p, true
	}
}

// StringKey adapts a plain string field; the empty string counts as missing.
func StringKey[T any](field func(T) string) KeyFunc[T] {
	return func(it T) (string, bool) {
		v := field(it)
		return v, v != ""
	}
}
