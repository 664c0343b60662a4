package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/pkg/httputil"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// Dashboard is the view surface the handlers serve. *dashboard.Service
// implements it.
type Dashboard interface {
	LocationStats(ctx context.Context, q dashboard.Query) (analytics.LocationStats, error)
	SourceStats(ctx context.Context, q dashboard.Query) (analytics.SourceStats, error)
	PipelineStats(ctx context.Context, q dashboard.Query) (analytics.PipelineStats, error)
	GrowthSeries(ctx context.Context, q dashboard.Query, g analytics.Granularity) (analytics.GrowthSeries, error)
	DashboardOverview(ctx context.Context, q dashboard.Query) (analytics.DashboardOverview, error)
	SourceBreakdown(ctx context.Context, q dashboard.Query) (analytics.SourceBreakdown, error)
	Timeline(ctx context.Context, q dashboard.Query) (analytics.Timeline, error)
	Funnel(ctx context.Context, q dashboard.Query) (analytics.FunnelStats, error)
	Heatmap(ctx context.Context, q dashboard.Query, a analytics.Activity) (analytics.HeatmapStats, error)
	Comparison(ctx context.Context, q dashboard.Query, d analytics.Dimension) (analytics.ComparisonStats, error)
	TopPerformers(ctx context.Context, q dashboard.Query, d analytics.Dimension, m analytics.RankMetric, limit int) (analytics.TopPerformers, error)
	CostAnalysis(ctx context.Context, q dashboard.Query, by analytics.CostGroupBy) (analytics.CostAnalysis, error)
}

// Handlers serves the /api/analytics endpoints.
type Handlers struct {
	svc      Dashboard
	loc      *time.Location
	validate *validator.Validate
}

// NewHandlers creates handlers over svc. Date-only query bounds are read as
// midnight in loc.
func NewHandlers(svc Dashboard, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{svc: svc, loc: loc, validate: validator.New()}
}

// serve parses the common query, runs view and writes its result.
func serve[T any](h *Handlers, w http.ResponseWriter, r *http.Request, view func(context.Context, dashboard.Query) (T, error)) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := view(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, out)
}

// writeError maps caller mistakes to 400 and hides everything else.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		err = httputil.Invalid("invalid_query", "invalid query parameters", details)
	case analytics.IsValidation(err), errors.Is(err, dashboard.ErrInvalidQuery), errors.Is(err, errBadParam):
		err = httputil.BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		err = httputil.Timeout()
	}
	httputil.WriteError(w, r, err)
}
