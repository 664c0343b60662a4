package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/api"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

type viewFlags struct {
	granularity string
	activity    string
	dimension   string
	metric      string
	groupBy     string
	limit       int
}

type viewFunc func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error)

var views = map[string]viewFunc{
	"locations": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.LocationStats(ctx, q)
	},
	"sources": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.SourceStats(ctx, q)
	},
	"pipeline": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.PipelineStats(ctx, q)
	},
	"growth": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error) {
		g, err := analytics.ParseGranularity(vf.granularity)
		if err != nil {
			return nil, err
		}
		return svc.GrowthSeries(ctx, q, g)
	},
	"overview": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.DashboardOverview(ctx, q)
	},
	"source-breakdown": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.SourceBreakdown(ctx, q)
	},
	"timeline": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.Timeline(ctx, q)
	},
	"funnel": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, _ viewFlags) (any, error) {
		return svc.Funnel(ctx, q)
	},
	"heatmap": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error) {
		a, err := analytics.ParseActivity(vf.activity)
		if err != nil {
			return nil, err
		}
		return svc.Heatmap(ctx, q, a)
	},
	"comparison": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error) {
		d, err := analytics.ParseDimension(vf.dimension)
		if err != nil {
			return nil, err
		}
		return svc.Comparison(ctx, q, d)
	},
	"top-performers": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error) {
		d, err := analytics.ParseDimension(vf.dimension)
		if err != nil {
			return nil, err
		}
		m, err := analytics.ParseRankMetric(vf.metric)
		if err != nil {
			return nil, err
		}
		return svc.TopPerformers(ctx, q, d, m, vf.limit)
	},
	"costs": func(ctx context.Context, svc api.Dashboard, q dashboard.Query, vf viewFlags) (any, error) {
		by, err := analytics.ParseCostGroupBy(vf.groupBy)
		if err != nil {
			return nil, err
		}
		return svc.CostAnalysis(ctx, q, by)
	},
}

func viewNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newViewCmd(open opener, qf *queryFlags) *cobra.Command {
	var vf viewFlags

	cmd := &cobra.Command{
		Use:       "view <name>",
		Short:     "Print a dashboard view as JSON",
		Long:      "Print a dashboard view as JSON. Views: " + strings.Join(viewNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := views[args[0]]
			if !ok {
				return fmt.Errorf("unknown view %q (want one of %s)", args[0], strings.Join(viewNames(), ", "))
			}
			if vf.limit < 0 || vf.limit > dashboard.MaxLimit {
				return fmt.Errorf("--limit must be between 0 and %d", dashboard.MaxLimit)
			}
			return withDeps(cmd.Context(), open, func(d *deps) error {
				q, err := qf.query(d.loc)
				if err != nil {
					return err
				}
				out, err := fn(cmd.Context(), d.svc, q, vf)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out, qf.pretty)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&vf.granularity, "granularity", "", "growth: week, month or quarter")
	f.StringVar(&vf.activity, "activity", "", "heatmap: leads, enrichments or searches")
	f.StringVar(&vf.dimension, "dimension", "", "comparison, top-performers: city, industry or source")
	f.StringVar(&vf.metric, "metric", "", "top-performers: count, enriched, enrichment_rate or cost")
	f.StringVar(&vf.groupBy, "group-by", "", "costs: service, operation or day")
	f.IntVar(&vf.limit, "limit", analytics.DefaultTopN, "top-performers: number of segments")
	return cmd
}
