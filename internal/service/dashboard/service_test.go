package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/domain"
	"github.com/ignite/leadgen-crm/internal/metrics"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// memRepo is an in-memory lead repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	records   []domain.Record
	contacted map[string]bool // keyed by record id
	responded map[string]bool
	jobs      []domain.JobEntry
	costs     []domain.CostEntry
	err       error
	calls     atomic.Int64
}

func inRange(t, from, to time.Time) bool {
	return (from.IsZero() || !t.Before(from)) && (to.IsZero() || t.Before(to))
}

func (m *memRepo) FetchRecords(_ context.Context, f domain.RecordFilter) ([]domain.Record, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Record
	for _, r := range m.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) FetchCostEntries(_ context.Context, from, to time.Time) ([]domain.CostEntry, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CostEntry
	for _, c := range m.costs {
		if inRange(c.CreatedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) FetchJobEntries(_ context.Context, from, to time.Time) ([]domain.JobEntry, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.JobEntry
	for _, j := range m.jobs {
		if inRange(j.CreatedAt, from, to) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memRepo) CountRecords(ctx context.Context, f domain.RecordFilter) (int, error) {
	records, err := m.FetchRecords(ctx, f)
	return len(records), err
}

func (m *memRepo) CountOutreach(ctx context.Context, f domain.RecordFilter) (int, int, error) {
	records, err := m.FetchRecords(ctx, f)
	if err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var contacted, responded int
	for _, r := range records {
		if m.contacted[r.ID] {
			contacted++
		}
		if m.responded[r.ID] {
			responded++
		}
	}
	return contacted, responded, nil
}

// memCache stores JSON like the Redis cache does.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newFixtureRepo() *memRepo {
	day := 24 * time.Hour
	return &memRepo{
		records: []domain.Record{
			{ID: "a1", City: strPtr("Austin"), Industry: strPtr("plumbing"), Source: "google_maps",
				EnrichmentStatus: domain.EnrichmentEnriched, CreatedAt: testNow.Add(-2 * day), UpdatedAt: testNow.Add(-day)},
			{ID: "a2", City: strPtr("Austin"), Industry: strPtr("plumbing"), Source: "google_maps",
				EnrichmentStatus: domain.EnrichmentPending, CreatedAt: testNow.Add(-3 * day)},
			{ID: "d1", City: strPtr("Dallas"), Industry: strPtr("hvac"), Source: "yelp",
				EnrichmentStatus: domain.EnrichmentFailed, CreatedAt: testNow.Add(-40 * day)},
			{ID: "d2", City: strPtr("Dallas"), Industry: strPtr("hvac"), Source: "yelp",
				EnrichmentStatus: domain.EnrichmentEnriched, CreatedAt: testNow.Add(-time.Hour), UpdatedAt: testNow.Add(-time.Hour)},
		},
		contacted: map[string]bool{"a1": true, "a2": true},
		responded: map[string]bool{"a1": true},
		jobs: []domain.JobEntry{
			{CreatedAt: testNow.Add(-2 * day), Status: domain.JobCompleted, BusinessesFound: 30, BusinessesSaved: 20, ApifyCost: 5},
			{CreatedAt: testNow.Add(-35 * day), Status: domain.JobCompleted, BusinessesFound: 10, BusinessesSaved: 5, ApifyCost: 2},
		},
		costs: []domain.CostEntry{
			{CreatedAt: testNow.Add(-2 * day), Service: "hunter", OperationType: "enrich", CostUSD: 3},
			{CreatedAt: testNow.Add(-time.Hour), Service: "openai", OperationType: "classify", CostUSD: 2},
		},
	}
}

func newTestService(repo dashboard.Repository, opts dashboard.Options) *dashboard.Service {
	if opts.Engine.Bucketizer.Location == nil {
		opts.Engine = analytics.NewEngine(time.UTC)
	}
	opts.Now = func() time.Time { return testNow }
	return dashboard.NewService(repo, opts)
}

func TestPipelineStats_AppliesFilter(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})

	stats, err := svc.PipelineStats(context.Background(), dashboard.Query{
		Filter: domain.RecordFilter{Cities: []string{"Dallas"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50.0, stats.EnrichmentRate)
	assert.Equal(t, 0, stats.Stages[0].Count)
	assert.Equal(t, 1, stats.Stages[2].Count)
}

func TestLocationAndSourceStats(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})
	ctx := context.Background()

	loc, err := svc.LocationStats(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.Equal(t, 4, loc.TotalBusinesses)
	assert.Equal(t, 2, loc.UniqueCities)

	start := testNow.Add(-5 * 24 * time.Hour)
	src, err := svc.SourceStats(ctx, dashboard.Query{Start: &start})
	require.NoError(t, err)
	assert.Equal(t, 3, src.Total, "start bound excludes the old Dallas lead")
}

func TestGrowthSeries_CountsRecordAtAnchor(t *testing.T) {
	repo := &memRepo{records: []domain.Record{
		{ID: "x", Source: "yelp", EnrichmentStatus: domain.EnrichmentEnriched, CreatedAt: testNow},
		{ID: "y", Source: "yelp", EnrichmentStatus: domain.EnrichmentPending, CreatedAt: testNow.Add(-24 * time.Hour)},
	}}
	svc := newTestService(repo, dashboard.Options{})

	gs, err := svc.GrowthSeries(context.Background(), dashboard.Query{}, analytics.GranularityWeek)
	require.NoError(t, err)
	require.Len(t, gs.Buckets, 7)
	assert.Equal(t, 1, gs.Buckets[6].Total)
	assert.Equal(t, 1, gs.Buckets[6].Enriched)
	assert.Equal(t, 1, gs.Buckets[5].Total)
}

func TestDashboardOverview(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})

	o, err := svc.DashboardOverview(context.Background(), dashboard.Query{})
	require.NoError(t, err)

	assert.Equal(t, testNow, o.Window.To)
	assert.Equal(t, testNow.Add(-30*24*time.Hour), o.Window.From)
	assert.Equal(t, 3, o.TotalLeads)

	assert.Equal(t, 1.0, o.Searches.Current)
	assert.Equal(t, analytics.TrendFlat, o.Searches.Trend)
	assert.Equal(t, 30.0, o.BusinessesFound.Current)
	assert.Equal(t, 200.0, o.BusinessesFound.Change)
	assert.Equal(t, 10.0, o.TotalCost.Current)
	assert.Equal(t, 2.0, o.TotalCost.Previous)
	assert.Equal(t, 0.5, o.CostPerLead.Current)
	assert.Equal(t, 0.4, o.CostPerLead.Previous)
	assert.Equal(t, 2.0, o.Enriched.Current)
	assert.Equal(t, 100.0, o.Enriched.Change)
	assert.Equal(t, 66.7, o.EnrichmentRate.Current)
	assert.Len(t, o.TotalCost.Sparkline, 7)
}

func TestFunnel_FlagsInconsistentCounts(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := newTestService(newFixtureRepo(), dashboard.Options{Metrics: m})
	ctx := context.Background()

	all, err := svc.Funnel(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.True(t, all.Consistent)
	assert.Equal(t, 25.0, all.OverallConversion)

	// Both Austin leads were contacted but only one is enriched.
	austin, err := svc.Funnel(ctx, dashboard.Query{Filter: domain.RecordFilter{Cities: []string{"Austin"}}})
	require.NoError(t, err)
	assert.False(t, austin.Consistent)
	assert.True(t, austin.Stages[2].Inconsistent)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InconsistentFunnels))
}

func TestStatusFilterNarrowsEnrichedCount(t *testing.T) {
	repo := &memRepo{}
	for i := 0; i < 50; i++ {
		status := domain.EnrichmentEnriched
		if i < 10 {
			status = domain.EnrichmentPending
		}
		repo.records = append(repo.records, domain.Record{
			ID: fmt.Sprintf("r%d", i), Source: "yelp", EnrichmentStatus: status, CreatedAt: testNow.Add(-time.Hour),
		})
	}
	m := metrics.New(prometheus.NewRegistry())
	svc := newTestService(repo, dashboard.Options{Metrics: m})
	ctx := context.Background()
	pending := dashboard.Query{Filter: domain.RecordFilter{EnrichmentStatuses: []string{"pending"}}}

	f, err := svc.Funnel(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, 10, f.Stages[0].Count)
	assert.Equal(t, 0, f.Stages[1].Count)
	assert.True(t, f.Consistent)
	assert.Zero(t, testutil.ToFloat64(m.InconsistentFunnels))

	o, err := svc.DashboardOverview(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, 10, o.TotalLeads)
	assert.Equal(t, 0.0, o.Enriched.Current)
	assert.Equal(t, 0.0, o.EnrichmentRate.Current)

	both := dashboard.Query{Filter: domain.RecordFilter{EnrichmentStatuses: []string{"pending", "enriched"}}}
	o, err = svc.DashboardOverview(ctx, both)
	require.NoError(t, err)
	assert.Equal(t, 50, o.TotalLeads)
	assert.Equal(t, 40.0, o.Enriched.Current)
	assert.Equal(t, 80.0, o.EnrichmentRate.Current)
}

func TestHeatmap(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})
	ctx := context.Background()

	leads, err := svc.Heatmap(ctx, dashboard.Query{}, analytics.ActivityLeads)
	require.NoError(t, err)
	assert.Equal(t, 3, leads.Total)
	assert.Len(t, leads.Grid, 168)

	searches, err := svc.Heatmap(ctx, dashboard.Query{}, analytics.ActivitySearches)
	require.NoError(t, err)
	assert.Equal(t, 1, searches.Total)
}

func TestComparisonAndTopPerformers(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})
	ctx := context.Background()

	cmp, err := svc.Comparison(ctx, dashboard.Query{}, analytics.DimensionCity)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.Total)
	assert.Equal(t, 10.0, cmp.TotalCost)
	require.Len(t, cmp.Segments, 2)
	assert.Equal(t, "Austin", cmp.Segments[0].Key)
	assert.Equal(t, 6.67, cmp.Segments[0].EstimatedCost)

	top, err := svc.TopPerformers(ctx, dashboard.Query{}, analytics.DimensionCity, analytics.MetricCount, 1)
	require.NoError(t, err)
	require.Len(t, top.Performers, 1)
	assert.Equal(t, "Austin", top.Performers[0].Segment.Key)
	assert.Equal(t, analytics.TrendUp, top.Performers[0].Trend)

	dallas, err := svc.TopPerformers(ctx, dashboard.Query{}, analytics.DimensionCity, analytics.MetricEnriched, 0)
	require.NoError(t, err)
	require.Len(t, dallas.Performers, 2)
	assert.Equal(t, analytics.TrendFlat, dallas.Performers[1].Trend, "Dallas held one lead in both windows")
}

func TestTopPerformers_RejectsLimit(t *testing.T) {
	repo := newFixtureRepo()
	svc := newTestService(repo, dashboard.Options{})

	_, err := svc.TopPerformers(context.Background(), dashboard.Query{}, analytics.DimensionCity, analytics.MetricCount, dashboard.MaxLimit+1)
	assert.ErrorIs(t, err, dashboard.ErrInvalidQuery)
	assert.Zero(t, repo.calls.Load())
}

func TestCostAnalysis(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{MonthlyBudget: 100})

	ca, err := svc.CostAnalysis(context.Background(), dashboard.Query{}, analytics.CostByService)
	require.NoError(t, err)
	assert.Equal(t, 10.0, ca.TotalCost)
	assert.Equal(t, 0.5, ca.CostPerLead)
	require.Len(t, ca.Groups, 3)
	assert.Equal(t, "apify", ca.Groups[0].Key)

	p := ca.Projection
	assert.Equal(t, 10, p.DayOfPeriod)
	assert.Equal(t, 31, p.DaysInPeriod)
	assert.Equal(t, 10.0, p.SpendToDate)
	assert.Equal(t, 31.0, p.Projected)
	assert.Equal(t, 69.0, p.Remaining)
	assert.True(t, p.OnTrack)
}

func TestSourceBreakdownAndTimeline(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})
	ctx := context.Background()

	b, err := svc.SourceBreakdown(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.True(t, b.Estimated)
	assert.Equal(t, 3, b.Total)
	assert.Equal(t, 10.0, b.TotalCost)

	start := testNow.Add(-7 * 24 * time.Hour)
	tl, err := svc.Timeline(ctx, dashboard.Query{Start: &start, End: &testNow})
	require.NoError(t, err)
	require.Len(t, tl.Points, 7)
	var leads int
	for _, p := range tl.Points {
		leads += p.Leads
	}
	assert.Equal(t, 3, leads)
	assert.Equal(t, 2.0, tl.Points[6].Cost)
}

func TestTimeline_DateBoundsAreHalfOpen(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &memRepo{records: []domain.Record{
		{ID: "from", Source: "yelp", EnrichmentStatus: domain.EnrichmentPending, CreatedAt: from},
		{ID: "early", Source: "yelp", EnrichmentStatus: domain.EnrichmentPending, CreatedAt: from.Add(time.Hour)},
		{ID: "end", Source: "yelp", EnrichmentStatus: domain.EnrichmentPending, CreatedAt: to},
	}}
	svc := newTestService(repo, dashboard.Options{})

	tl, err := svc.Timeline(context.Background(), dashboard.Query{Start: &from, End: &to})
	require.NoError(t, err)
	require.Len(t, tl.Points, 3)
	assert.Equal(t, "3/1", tl.Points[0].Label)
	assert.Equal(t, 2, tl.Points[0].Leads)
	assert.Equal(t, 0, tl.Points[2].Leads, "a record at the window end is outside the window")
}

func TestInvalidRange_SkipsRepository(t *testing.T) {
	repo := newFixtureRepo()
	svc := newTestService(repo, dashboard.Options{})
	start, end := testNow, testNow.Add(-time.Hour)
	q := dashboard.Query{Start: &start, End: &end}

	_, err := svc.DashboardOverview(context.Background(), q)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)

	_, err = svc.PipelineStats(context.Background(), q)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
	assert.Zero(t, repo.calls.Load())
}

func TestRepositoryErrorFailsWholeView(t *testing.T) {
	errBoom := errors.New("connection reset")
	repo := newFixtureRepo()
	repo.err = errBoom
	svc := newTestService(repo, dashboard.Options{})

	_, err := svc.DashboardOverview(context.Background(), dashboard.Query{})
	assert.ErrorIs(t, err, errBoom)

	_, err = svc.Funnel(context.Background(), dashboard.Query{})
	assert.ErrorIs(t, err, errBoom)
}

func TestCancelledContext(t *testing.T) {
	svc := newTestService(newFixtureRepo(), dashboard.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SourceStats(ctx, dashboard.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheServesRepeatedViews(t *testing.T) {
	repo := newFixtureRepo()
	m := metrics.New(prometheus.NewRegistry())
	svc := newTestService(repo, dashboard.Options{Cache: &memCache{data: map[string][]byte{}}, Metrics: m})
	ctx := context.Background()

	first, err := svc.PipelineStats(ctx, dashboard.Query{})
	require.NoError(t, err)
	calls := repo.calls.Load()

	second, err := svc.PipelineStats(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, repo.calls.Load(), "second call must not hit the repository")

	_, err = svc.PipelineStats(ctx, dashboard.Query{Filter: domain.RecordFilter{Sources: []string{"yelp"}}})
	require.NoError(t, err)
	assert.Greater(t, repo.calls.Load(), calls, "different filters use different keys")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheResults.WithLabelValues("pipeline", metrics.CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheResults.WithLabelValues("pipeline", metrics.CacheMiss)))
}

func TestCacheKeyFollowsDefaultWindow(t *testing.T) {
	repo := newFixtureRepo()
	now := testNow
	svc := dashboard.NewService(repo, dashboard.Options{
		Engine: analytics.NewEngine(time.UTC),
		Cache:  &memCache{data: map[string][]byte{}},
		Now:    func() time.Time { return now },
	})
	ctx := context.Background()

	first, err := svc.DashboardOverview(ctx, dashboard.Query{})
	require.NoError(t, err)
	calls := repo.calls.Load()

	now = testNow.Add(20 * time.Second)
	_, err = svc.DashboardOverview(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.Equal(t, calls, repo.calls.Load(), "same minute reuses the cached window")

	now = testNow.Add(2 * time.Minute)
	second, err := svc.DashboardOverview(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.Greater(t, repo.calls.Load(), calls, "a later window is recomputed")
	assert.Equal(t, now, second.Window.To)
	assert.NotEqual(t, first.Window, second.Window)
}
