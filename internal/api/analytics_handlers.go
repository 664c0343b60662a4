package api

import (
	"context"
	"net/http"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// GetLocations returns city and industry breakdowns.
//
//	GET /api/analytics/locations
func (h *Handlers) GetLocations(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.LocationStats)
}

// GetSources returns per-source counts.
//
//	GET /api/analytics/sources
func (h *Handlers) GetSources(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.SourceStats)
}

// GetPipeline returns the enrichment pipeline.
//
//	GET /api/analytics/pipeline
func (h *Handlers) GetPipeline(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.PipelineStats)
}

// GetGrowth returns the lead growth series.
//
//	GET /api/analytics/growth?granularity=week|month|quarter
func (h *Handlers) GetGrowth(w http.ResponseWriter, r *http.Request) {
	g, err := analytics.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serve(h, w, r, func(ctx context.Context, q dashboard.Query) (analytics.GrowthSeries, error) {
		return h.svc.GrowthSeries(ctx, q, g)
	})
}

// GetOverview returns headline KPIs against the previous period.
//
//	GET /api/analytics/overview?start=&end=
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.DashboardOverview)
}

// GetSourceBreakdown returns per-source estimated spend.
//
//	GET /api/analytics/source-breakdown
func (h *Handlers) GetSourceBreakdown(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.SourceBreakdown)
}

// GetTimeline returns daily activity.
//
//	GET /api/analytics/timeline
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.Timeline)
}

// GetFunnel returns the conversion funnel.
//
//	GET /api/analytics/funnel
func (h *Handlers) GetFunnel(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.svc.Funnel)
}

// GetHeatmap returns the weekday x hour activity grid.
//
//	GET /api/analytics/heatmap?activity=leads|enrichments|searches
func (h *Handlers) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	a, err := analytics.ParseActivity(r.URL.Query().Get("activity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serve(h, w, r, func(ctx context.Context, q dashboard.Query) (analytics.HeatmapStats, error) {
		return h.svc.Heatmap(ctx, q, a)
	})
}

// GetComparison compares segments along a dimension.
//
//	GET /api/analytics/comparison?dimension=city|industry|source
func (h *Handlers) GetComparison(w http.ResponseWriter, r *http.Request) {
	d, err := analytics.ParseDimension(r.URL.Query().Get("dimension"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serve(h, w, r, func(ctx context.Context, q dashboard.Query) (analytics.ComparisonStats, error) {
		return h.svc.Comparison(ctx, q, d)
	})
}

// GetTopPerformers ranks segments.
//
//	GET /api/analytics/top-performers?metric=&dimension=&limit=
func (h *Handlers) GetTopPerformers(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	d, err := analytics.ParseDimension(v.Get("dimension"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := analytics.ParseRankMetric(v.Get("metric"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := h.parseLimit(r, analytics.DefaultTopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serve(h, w, r, func(ctx context.Context, q dashboard.Query) (analytics.TopPerformers, error) {
		return h.svc.TopPerformers(ctx, q, d, m, limit)
	})
}

// GetCosts returns grouped spend and the month-end projection.
//
//	GET /api/analytics/costs?group_by=service|operation|day
func (h *Handlers) GetCosts(w http.ResponseWriter, r *http.Request) {
	by, err := analytics.ParseCostGroupBy(r.URL.Query().Get("group_by"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	serve(h, w, r, func(ctx context.Context, q dashboard.Query) (analytics.CostAnalysis, error) {
		return h.svc.CostAnalysis(ctx, q, by)
	})
}
