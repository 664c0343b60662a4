package analytics

// Funnel stage names in domain order.
const (
	StageScraped   = "Scraped"
	StageEnriched  = "Enriched"
	StageContacted = "Contacted"
	StageResponded = "Responded"
)

// StageCount is a named raw count supplied by the caller in funnel order.
type StageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FunnelStage is one computed funnel step.
type FunnelStage struct {
	Name           string  `json:"name"`
	Count          int     `json:"count"`
	ConversionRate float64 `json:"conversion_rate"`
	DropOff        int     `json:"drop_off"`
	Inconsistent   bool    `json:"inconsistent,omitempty"`
}

// ComputeFunnel derives conversion and drop-off for an ordered stage list.
//
// ConversionRate is relative to the first stage (the share of all
// top-of-funnel entries that reached the stage); DropOff is relative to the
// previous stage. A negative DropOff is kept as-is and flagged Inconsistent.
func ComputeFunnel(counts []StageCount) []FunnelStage {
	out := make([]FunnelStage, len(counts))
	if len(counts) == 0 {
		return out
	}
	top := float64(counts[0].Count)
	for i, c := range counts {
		st := FunnelStage{Name: c.Name, Count: c.Count}
		if i == 0 {
			st.ConversionRate = 100
		} else {
			st.ConversionRate = percentOf(float64(c.Count), top)
			st.DropOff = counts[i-1].Count - c.Count
			st.Inconsistent = st.DropOff < 0
		}
		out[i] = st
	}
	return out
}

// CheckFunnel returns an *InconsistentFunnelError for the first stage whose
// count exceeds its predecessor, or nil.
func CheckFunnel(stages []FunnelStage) error {
	for i := 1; i < len(stages); i++ {
		if stages[i].Count > stages[i-1].Count {
			return &InconsistentFunnelError{
				Stage:     stages[i].Name,
				Count:     stages[i].Count,
				Previous:  stages[i-1].Name,
				PrevCount: stages[i-1].Count,
			}
		}
	}
	return nil
}

// OverallConversion is last stage / first stage, as a one-decimal percentage.
func OverallConversion(stages []FunnelStage) float64 {
	if len(stages) == 0 {
		return 0
	}
	return percentOf(float64(stages[len(stages)-1].Count), float64(stages[0].Count))
}
