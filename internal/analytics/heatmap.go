package analytics

// Heatmap grid dimensions.
const (
	Weekdays = 7
	Hours    = 24
)

// HeatmapCell is one weekday x hour cell. Weekday 0 is Sunday.
type HeatmapCell struct {
	Weekday   int     `json:"weekday"`
	Hour      int     `json:"hour"`
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
}

// Heatmap is the complete 7x24 grid in weekday-major order.
type Heatmap struct {
	Grid     []HeatmapCell `json:"grid"`
	MaxValue int           `json:"max_value"`
}

// Cell returns the cell for weekday/hour.
func (h Heatmap) Cell(weekday, hour int) HeatmapCell {
	return h.Grid[weekday*Hours+hour]
}

// BuildHeatmap counts items per weekday/hour. All 168 cells are emitted,
// zero-filled, and intensities are count/max (0 everywhere when max is 0).
// Items mapping outside 0..6 / 0..23 are ignored.
func BuildHeatmap[T any](items []T, weekday func(T) int, hour func(T) int) Heatmap {
	var grid [Weekdays][Hours]int
	for _, it := range items {
		d, h := weekday(it), hour(it)
		if d < 0 || d >= Weekdays || h < 0 || h >= Hours {
			continue
		}
		grid[d][h]++
	}

	maxValue := 0
	for d := range Weekdays {
		for h := range Hours {
			maxValue = max(maxValue, grid[d][h])
		}
	}

	cells := make([]HeatmapCell, 0, Weekdays*Hours)
	for d := range Weekdays {
		for h := range Hours {
			c := HeatmapCell{Weekday: d, Hour: h, Count: grid[d][h]}
			if maxValue > 0 {
				c.Intensity = float64(c.Count) / float64(maxValue)
			}
			cells = append(cells, c)
		}
	}
	return Heatmap{Grid: cells, MaxValue: maxValue}
}

// Peak returns the first cell holding MaxValue (weekday-major scan). On an
// empty grid it returns the zero cell.
func (h Heatmap) Peak() HeatmapCell {
	for _, c := range h.Grid {
		if h.MaxValue > 0 && c.Count == h.MaxValue {
			return c
		}
	}
	return HeatmapCell{}
}
