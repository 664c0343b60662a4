package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/cache"
	"github.com/ignite/leadgen-crm/internal/domain"
	"github.com/ignite/leadgen-crm/internal/metrics"
	"github.com/ignite/leadgen-crm/internal/pkg/logger"
)

var viewLog = logger.With("component", "dashboard")

// MaxLimit caps the top performers list.
const MaxLimit = 100

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Engine        analytics.Engine
	DefaultWindow time.Duration
	MonthlyBudget float64
	Cache         Cache
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// Service computes dashboard views. It is safe for concurrent use.
type Service struct {
	repo     Repository
	engine   analytics.Engine
	resolver analytics.Resolver
	budget   float64
	cache    Cache
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a dashboard service backed by the given repository.
func NewService(repo Repository, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		engine:   opts.Engine,
		resolver: analytics.Resolver{Now: now, DefaultSpan: opts.DefaultWindow},
		budget:   opts.MonthlyBudget,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Engine returns the analytics engine the service computes with.
func (s *Service) Engine() analytics.Engine { return s.engine }

// cached serves view from the cache when possible and stores fresh results.
// Cache failures are logged and otherwise ignored.
func cached[T any](ctx context.Context, s *Service, view string, params any, compute func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	var key string
	if s.cache != nil {
		key = cache.Key(view, params)
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		switch {
		case err != nil:
			s.metrics.ObserveCache(view, metrics.CacheError)
			viewLog.Warn("view cache read failed", "view", view, "error", err)
		case ok:
			s.metrics.ObserveCache(view, metrics.CacheHit)
			s.metrics.ObserveView(view, start, nil)
			return hit, nil
		default:
			s.metrics.ObserveCache(view, metrics.CacheMiss)
		}
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	out, err := compute(ctx)
	s.metrics.ObserveView(view, start, err)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out); err != nil {
			viewLog.Warn("view cache write failed", "view", view, "error", err)
		}
	}
	return out, nil
}

type viewParams struct {
	Query  Query                 `json:"query"`
	Window *analytics.TimeWindow `json:"window,omitempty"`
	Extra  any                   `json:"extra,omitempty"`
}

// windowed keys a view by its resolved window at minute resolution, so a
// default window moves to a fresh key as now advances.
func windowed(q Query, w analytics.TimeWindow, extra any) viewParams {
	kw := analytics.TimeWindow{From: w.From.Truncate(time.Minute), To: w.To.Truncate(time.Minute)}
	return viewParams{Query: q, Window: &kw, Extra: extra}
}

func (s *Service) window(q Query) (analytics.TimeWindow, error) {
	return s.resolver.Resolve(q.Start, q.End)
}

// closed widens a half-open fetch window so a record stamped exactly at the
// end instant, which end-anchored buckets count, is fetched too.
func closed(w analytics.TimeWindow) analytics.TimeWindow {
	return analytics.TimeWindow{From: w.From, To: w.To.Add(time.Nanosecond)}
}

// LocationStats returns the city and industry breakdown.
func (s *Service) LocationStats(ctx context.Context, q Query) (analytics.LocationStats, error) {
	return cached(ctx, s, "locations", viewParams{Query: q}, func(ctx context.Context) (analytics.LocationStats, error) {
		records, err := s.snapshotRecords(ctx, q)
		if err != nil {
			return analytics.LocationStats{}, err
		}
		return s.engine.ComputeLocationStats(records), nil
	})
}

// SourceStats returns the per-source breakdown.
func (s *Service) SourceStats(ctx context.Context, q Query) (analytics.SourceStats, error) {
	return cached(ctx, s, "sources", viewParams{Query: q}, func(ctx context.Context) (analytics.SourceStats, error) {
		records, err := s.snapshotRecords(ctx, q)
		if err != nil {
			return analytics.SourceStats{}, err
		}
		return s.engine.ComputeSourceStats(records), nil
	})
}

// PipelineStats returns the enrichment pipeline breakdown.
func (s *Service) PipelineStats(ctx context.Context, q Query) (analytics.PipelineStats, error) {
	return cached(ctx, s, "pipeline", viewParams{Query: q}, func(ctx context.Context) (analytics.PipelineStats, error) {
		records, err := s.snapshotRecords(ctx, q)
		if err != nil {
			return analytics.PipelineStats{}, err
		}
		return s.engine.ComputePipelineStats(records), nil
	})
}

func (s *Service) snapshotRecords(ctx context.Context, q Query) ([]domain.Record, error) {
	f, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	records, err := s.repo.FetchRecords(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return records, nil
}

// GrowthSeries buckets records for g ending at q.End, or now.
func (s *Service) GrowthSeries(ctx context.Context, q Query, g analytics.Granularity) (analytics.GrowthSeries, error) {
	anchor := s.now()
	if q.End != nil {
		anchor = *q.End
	}
	w, err := s.engine.GrowthWindow(g, anchor)
	if err != nil {
		return analytics.GrowthSeries{}, err
	}
	return cached(ctx, s, "growth", windowed(q, w, g), func(ctx context.Context) (analytics.GrowthSeries, error) {
		fw := closed(w)
		records, err := s.repo.FetchRecords(ctx, q.Filter.WithRange(fw.From, fw.To))
		if err != nil {
			return analytics.GrowthSeries{}, fmt.Errorf("fetch records: %w", err)
		}
		return s.engine.ComputeGrowthSeries(records, g, anchor)
	})
}

// periodFetch loads the totals of one overview period into dst.
func (s *Service) periodFetch(ctx context.Context, g *errgroup.Group, f domain.RecordFilter, w analytics.TimeWindow, dst *analytics.PeriodData) {
	scoped := f.WithRange(w.From, w.To)
	g.Go(func() error {
		n, err := s.repo.CountRecords(ctx, scoped)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		dst.Leads = n
		return nil
	})
	g.Go(func() error {
		n, err := s.countEnriched(ctx, scoped)
		if err != nil {
			return err
		}
		dst.Enriched = n
		return nil
	})
	s.spendFetch(ctx, g, w, &dst.Jobs, &dst.Costs)
}

// countEnriched counts the enriched records matching f. A filter whose
// statuses exclude enriched counts zero without a query.
func (s *Service) countEnriched(ctx context.Context, f domain.RecordFilter) (int, error) {
	ef, ok := f.WithStatus(domain.EnrichmentEnriched)
	if !ok {
		return 0, nil
	}
	n, err := s.repo.CountRecords(ctx, ef)
	if err != nil {
		return 0, fmt.Errorf("count enriched: %w", err)
	}
	return n, nil
}

func (s *Service) spendFetch(ctx context.Context, g *errgroup.Group, w analytics.TimeWindow, jobs *[]domain.JobEntry, costs *[]domain.CostEntry) {
	g.Go(func() error {
		out, err := s.repo.FetchJobEntries(ctx, w.From, w.To)
		if err != nil {
			return fmt.Errorf("fetch jobs: %w", err)
		}
		*jobs = out
		return nil
	})
	g.Go(func() error {
		out, err := s.repo.FetchCostEntries(ctx, w.From, w.To)
		if err != nil {
			return fmt.Errorf("fetch costs: %w", err)
		}
		*costs = out
		return nil
	})
}

func (s *Service) recordFetch(ctx context.Context, g *errgroup.Group, f domain.RecordFilter, dst *[]domain.Record) {
	g.Go(func() error {
		out, err := s.repo.FetchRecords(ctx, f)
		if err != nil {
			return fmt.Errorf("fetch records: %w", err)
		}
		*dst = out
		return nil
	})
}

// DashboardOverview returns the headline KPIs against the previous window.
func (s *Service) DashboardOverview(ctx context.Context, q Query) (analytics.DashboardOverview, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.DashboardOverview{}, err
	}
	return cached(ctx, s, "overview", windowed(q, w, nil), func(ctx context.Context) (analytics.DashboardOverview, error) {
		in := analytics.OverviewInput{Window: w}
		recent := closed(analytics.SparklineWindow(w))

		g, gctx := errgroup.WithContext(ctx)
		s.periodFetch(gctx, g, q.Filter, w, &in.Current)
		s.periodFetch(gctx, g, q.Filter, analytics.PreviousOf(w), &in.Previous)
		s.recordFetch(gctx, g, q.Filter.WithRange(recent.From, recent.To), &in.Recent.Records)
		s.spendFetch(gctx, g, recent, &in.Recent.Jobs, &in.Recent.Costs)
		if err := g.Wait(); err != nil {
			return analytics.DashboardOverview{}, err
		}
		return s.engine.ComputeDashboardOverview(in), nil
	})
}

// SourceBreakdown returns per-source counts with estimated spend.
func (s *Service) SourceBreakdown(ctx context.Context, q Query) (analytics.SourceBreakdown, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.SourceBreakdown{}, err
	}
	return cached(ctx, s, "source-breakdown", windowed(q, w, nil), func(ctx context.Context) (analytics.SourceBreakdown, error) {
		var (
			records []domain.Record
			jobs    []domain.JobEntry
			costs   []domain.CostEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		s.recordFetch(gctx, g, q.Filter.WithRange(w.From, w.To), &records)
		s.spendFetch(gctx, g, w, &jobs, &costs)
		if err := g.Wait(); err != nil {
			return analytics.SourceBreakdown{}, err
		}
		return s.engine.ComputeSourceBreakdown(w, records, costs, jobs), nil
	})
}

// Timeline returns the daily activity of the window.
func (s *Service) Timeline(ctx context.Context, q Query) (analytics.Timeline, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.Timeline{}, err
	}
	return cached(ctx, s, "timeline", windowed(q, w, nil), func(ctx context.Context) (analytics.Timeline, error) {
		var (
			records []domain.Record
			jobs    []domain.JobEntry
			costs   []domain.CostEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		s.recordFetch(gctx, g, q.Filter.WithRange(w.From, w.To), &records)
		s.spendFetch(gctx, g, w, &jobs, &costs)
		if err := g.Wait(); err != nil {
			return analytics.Timeline{}, err
		}
		return s.engine.ComputeTimeline(w, records, jobs, costs), nil
	})
}

// Funnel returns the Scraped -> Responded conversion funnel. Inconsistent
// stage counts are reported in the result and logged, never corrected.
func (s *Service) Funnel(ctx context.Context, q Query) (analytics.FunnelStats, error) {
	f, err := q.snapshot()
	if err != nil {
		return analytics.FunnelStats{}, err
	}
	return cached(ctx, s, "funnel", viewParams{Query: q}, func(ctx context.Context) (analytics.FunnelStats, error) {
		var c analytics.FunnelCounts
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := s.repo.CountRecords(gctx, f)
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}
			c.Scraped = n
			return nil
		})
		g.Go(func() error {
			n, err := s.countEnriched(gctx, f)
			if err != nil {
				return err
			}
			c.Enriched = n
			return nil
		})
		g.Go(func() error {
			contacted, responded, err := s.repo.CountOutreach(gctx, f)
			if err != nil {
				return fmt.Errorf("count outreach: %w", err)
			}
			c.Contacted, c.Responded = contacted, responded
			return nil
		})
		if err := g.Wait(); err != nil {
			return analytics.FunnelStats{}, err
		}

		stats := s.engine.ComputeFunnelStats(c)
		if !stats.Consistent {
			s.metrics.ObserveInconsistentFunnel()
			viewLog.Warn("inconsistent funnel counts", "error", analytics.CheckFunnel(stats.Stages))
		}
		return stats, nil
	})
}

// Heatmap returns the weekday x hour grid of activity a over the window.
func (s *Service) Heatmap(ctx context.Context, q Query, a analytics.Activity) (analytics.HeatmapStats, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.HeatmapStats{}, err
	}
	return cached(ctx, s, "heatmap", windowed(q, w, a), func(ctx context.Context) (analytics.HeatmapStats, error) {
		if a.UsesJobs() {
			jobs, err := s.repo.FetchJobEntries(ctx, w.From, w.To)
			if err != nil {
				return analytics.HeatmapStats{}, fmt.Errorf("fetch jobs: %w", err)
			}
			return s.engine.ComputeHeatmapStats(a, nil, jobs), nil
		}
		records, err := s.repo.FetchRecords(ctx, q.Filter.WithRange(w.From, w.To))
		if err != nil {
			return analytics.HeatmapStats{}, fmt.Errorf("fetch records: %w", err)
		}
		return s.engine.ComputeHeatmapStats(a, records, nil), nil
	})
}

// Comparison returns segments along d with spend allocated from the window.
func (s *Service) Comparison(ctx context.Context, q Query, d analytics.Dimension) (analytics.ComparisonStats, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.ComparisonStats{}, err
	}
	return cached(ctx, s, "comparison", windowed(q, w, d), func(ctx context.Context) (analytics.ComparisonStats, error) {
		var (
			records []domain.Record
			jobs    []domain.JobEntry
			costs   []domain.CostEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		s.recordFetch(gctx, g, q.Filter.WithRange(w.From, w.To), &records)
		s.spendFetch(gctx, g, w, &jobs, &costs)
		if err := g.Wait(); err != nil {
			return analytics.ComparisonStats{}, err
		}
		return s.engine.ComputeComparisonStats(records, d, analytics.TotalSpend(costs, jobs)), nil
	})
}

type topParams struct {
	Dimension analytics.Dimension  `json:"dimension"`
	Metric    analytics.RankMetric `json:"metric"`
	Limit     int                  `json:"limit"`
}

// TopPerformers ranks segments of d by m. Trends compare segment counts
// against the previous window of equal length.
func (s *Service) TopPerformers(ctx context.Context, q Query, d analytics.Dimension, m analytics.RankMetric, limit int) (analytics.TopPerformers, error) {
	if limit < 0 || limit > MaxLimit {
		return analytics.TopPerformers{}, fmt.Errorf("%w: limit must be within 0..%d, got %d", ErrInvalidQuery, MaxLimit, limit)
	}
	w, err := s.window(q)
	if err != nil {
		return analytics.TopPerformers{}, err
	}
	params := windowed(q, w, topParams{Dimension: d, Metric: m, Limit: limit})
	return cached(ctx, s, "top-performers", params, func(ctx context.Context) (analytics.TopPerformers, error) {
		prevWindow := analytics.PreviousOf(w)
		var (
			records  []domain.Record
			previous []domain.Record
			jobs     []domain.JobEntry
			costs    []domain.CostEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		s.recordFetch(gctx, g, q.Filter.WithRange(w.From, w.To), &records)
		s.recordFetch(gctx, g, q.Filter.WithRange(prevWindow.From, prevWindow.To), &previous)
		s.spendFetch(gctx, g, w, &jobs, &costs)
		if err := g.Wait(); err != nil {
			return analytics.TopPerformers{}, err
		}
		spend := analytics.TotalSpend(costs, jobs)
		return s.engine.ComputeTopPerformers(records, d, m, limit, spend, analytics.PeriodTrend(previous, d)), nil
	})
}

type costParams struct {
	GroupBy analytics.CostGroupBy `json:"group_by"`
	Now     time.Time             `json:"now"`
}

// CostAnalysis groups the window's spend along by and projects the current
// month against the configured budget.
func (s *Service) CostAnalysis(ctx context.Context, q Query, by analytics.CostGroupBy) (analytics.CostAnalysis, error) {
	w, err := s.window(q)
	if err != nil {
		return analytics.CostAnalysis{}, err
	}
	now := s.now()
	params := windowed(q, w, costParams{GroupBy: by, Now: now.Truncate(time.Minute)})
	return cached(ctx, s, "costs", params, func(ctx context.Context) (analytics.CostAnalysis, error) {
		_, _, monthStart := analytics.MonthPeriod(now, s.engine.Location())
		month := analytics.TimeWindow{From: monthStart, To: now}

		in := analytics.CostInput{Now: now, Budget: s.budget}
		g, gctx := errgroup.WithContext(ctx)
		s.spendFetch(gctx, g, w, &in.Jobs, &in.Costs)
		s.spendFetch(gctx, g, month, &in.MonthJobs, &in.MonthCosts)
		if err := g.Wait(); err != nil {
			return analytics.CostAnalysis{}, err
		}
		return s.engine.ComputeCostAnalysis(by, in)
	})
}
