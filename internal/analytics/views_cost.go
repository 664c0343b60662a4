package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// CostGroupBy selects the cost grouping axis.
type CostGroupBy string

const (
	CostByService   CostGroupBy = "service"
	CostByOperation CostGroupBy = "operation"
	CostByDay       CostGroupBy = "day"
)

// ParseCostGroupBy validates a raw grouping. Empty input maps to service.
func ParseCostGroupBy(raw string) (CostGroupBy, error) {
	switch g := CostGroupBy(raw); g {
	case "":
		return CostByService, nil
	case CostByService, CostByOperation, CostByDay:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, raw)
}

// CostGroup is the spend of one service, operation or day.
type CostGroup struct {
	Key         string   `json:"key"`
	Entries     int      `json:"entries"`
	TotalCost   float64  `json:"total_cost"`
	Share       float64  `json:"share"`
	AverageCost float64  `json:"average_cost"`
	SuccessRate *float64 `json:"estimated_success_rate,omitempty"`
}

// CostInput is the fetched data behind the cost analysis. Costs and Jobs
// cover the requested window; MonthCosts and MonthJobs cover the current
// billing month up to Now.
type CostInput struct {
	Costs      []domain.CostEntry
	Jobs       []domain.JobEntry
	MonthCosts []domain.CostEntry
	MonthJobs  []domain.JobEntry
	Now        time.Time
	Budget     float64
}

// CostAnalysis is the spend dashboard.
type CostAnalysis struct {
	GroupBy     CostGroupBy `json:"group_by"`
	TotalCost   float64     `json:"total_cost"`
	EntryCount  int         `json:"entry_count"`
	CostPerLead float64     `json:"cost_per_lead"`
	Groups      []CostGroup `json:"groups"`
	Projection  Projection  `json:"projection"`
}

const sumCost = "cost"

// ComputeCostAnalysis groups spend along g and projects month-end spend
// against in.Budget. Service and operation groups are ordered by spend;
// day groups are chronological. Success rates are attached to service
// groups from the engine's configured estimates.
func (e Engine) ComputeCostAnalysis(g CostGroupBy, in CostInput) (CostAnalysis, error) {
	entries := SpendEntries(in.Costs, in.Jobs)
	loc := e.Location()

	var key KeyFunc[domain.CostEntry]
	switch g {
	case CostByOperation:
		key = StringKey(func(c domain.CostEntry) string { return c.OperationType })
	case CostByDay:
		key = func(c domain.CostEntry) (string, bool) {
			return c.CreatedAt.In(loc).Format("2006-01-02"), true
		}
	default:
		key = StringKey(func(c domain.CostEntry) string { return c.Service })
	}
	res := GroupBy(entries, key, GroupOptions[domain.CostEntry]{
		Sentinel:  UnknownSource,
		SumFields: map[string]func(domain.CostEntry) float64{sumCost: func(c domain.CostEntry) float64 { return c.CostUSD }},
	})

	var total float64
	for _, grp := range res.Groups {
		total += grp.SumFields[sumCost]
	}

	groups := make([]CostGroup, 0, len(res.Groups))
	for _, grp := range res.Groups {
		spent := grp.SumFields[sumCost]
		cg := CostGroup{
			Key:         grp.Key,
			Entries:     grp.Count,
			TotalCost:   Round2(spent),
			Share:       percentOf(spent, total),
			AverageCost: Round2(safeDiv(spent, float64(grp.Count))),
		}
		if g == CostByService {
			if rate, ok := e.SuccessRates[grp.Key]; ok {
				cg.SuccessRate = &rate
			}
		}
		groups = append(groups, cg)
	}
	if g == CostByDay {
		sort.SliceStable(groups, func(a, b int) bool { return groups[a].Key < groups[b].Key })
	} else {
		sort.SliceStable(groups, func(a, b int) bool { return groups[a].TotalCost > groups[b].TotalCost })
	}

	var saved int
	for _, j := range in.Jobs {
		saved += j.BusinessesSaved
	}

	dayOf, daysIn, _ := MonthPeriod(in.Now, loc)
	proj, err := Project(TotalSpend(in.MonthCosts, in.MonthJobs), dayOf, daysIn, in.Budget)
	if err != nil {
		return CostAnalysis{}, err
	}

	return CostAnalysis{
		GroupBy:     g,
		TotalCost:   Round2(total),
		EntryCount:  res.Total,
		CostPerLead: Round2(safeDiv(total, float64(saved))),
		Groups:      groups,
		Projection:  proj,
	}, nil
}
