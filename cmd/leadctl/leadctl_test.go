package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/api"
	"github.com/ignite/leadgen-crm/internal/cache"
	"github.com/ignite/leadgen-crm/internal/pkg/distlock"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// stubDashboard overrides the views under test; the rest panic.
type stubDashboard struct {
	api.Dashboard
	query  dashboard.Query
	metric analytics.RankMetric
	limit  int
}

func (s *stubDashboard) PipelineStats(_ context.Context, q dashboard.Query) (analytics.PipelineStats, error) {
	s.query = q
	return analytics.PipelineStats{Total: 7}, nil
}

func (s *stubDashboard) TopPerformers(_ context.Context, q dashboard.Query, d analytics.Dimension, m analytics.RankMetric, limit int) (analytics.TopPerformers, error) {
	s.query, s.metric, s.limit = q, m, limit
	return analytics.TopPerformers{Dimension: d, Metric: m}, nil
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func staticOpener(d *deps) opener {
	return func(context.Context) (*deps, error) { return d, nil }
}

func TestViewPipeline(t *testing.T) {
	stub := &stubDashboard{}
	closed := false
	open := staticOpener(&deps{svc: stub, loc: time.UTC, close: func() error { closed = true; return nil }})

	out, err := run(t, open, "view", "pipeline", "--cities", "Austin,Dallas", "--start", "2026-03-01")
	require.NoError(t, err)
	assert.True(t, closed)

	var stats analytics.PipelineStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, []string{"Austin", "Dallas"}, stub.query.Filter.Cities)
	require.NotNil(t, stub.query.Start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *stub.query.Start)
	assert.Nil(t, stub.query.End)
}

func TestViewTopPerformersFlags(t *testing.T) {
	stub := &stubDashboard{}
	_, err := run(t, staticOpener(&deps{svc: stub, loc: time.UTC}),
		"view", "top-performers", "--metric", "enrichment_rate", "--limit", "3")
	require.NoError(t, err)
	assert.Equal(t, analytics.MetricEnrichmentRate, stub.metric)
	assert.Equal(t, 3, stub.limit)
}

func TestViewErrors(t *testing.T) {
	opened := false
	open := func(context.Context) (*deps, error) {
		opened = true
		return &deps{svc: &stubDashboard{}, loc: time.UTC}, nil
	}

	_, err := run(t, open, "view", "nope")
	assert.ErrorContains(t, err, "unknown view")

	_, err = run(t, open, "view", "top-performers", "--limit", "500")
	assert.ErrorContains(t, err, "--limit")
	assert.False(t, opened, "argument errors are reported before connecting")

	_, err = run(t, open, "view", "pipeline", "--statuses", "archived")
	assert.ErrorContains(t, err, "archived")

	_, err = run(t, open, "view", "top-performers", "--metric", "revenue")
	assert.ErrorIs(t, err, analytics.ErrInvalidMetric)

	_, err = run(t, open, "view", "pipeline", "--end", "tomorrow")
	assert.ErrorContains(t, err, "--end")
}

func TestViewOpenError(t *testing.T) {
	boom := errors.New("database unreachable")
	_, err := run(t, func(context.Context) (*deps, error) { return nil, boom }, "view", "pipeline")
	assert.ErrorIs(t, err, boom)
}

func TestCacheFlush(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	vc := cache.New(client, time.Minute)
	require.NoError(t, vc.Set(context.Background(), cache.Key("pipeline", nil), analytics.PipelineStats{Total: 1}))

	lock := distlock.NewRedisLock(client, "cache-flush", time.Minute)
	out, err := run(t, staticOpener(&deps{flusher: vc, lock: lock}), "cache", "flush")
	require.NoError(t, err)
	assert.Contains(t, out, "Flushed 1 cached views")
	assert.False(t, mr.Exists(lock.Key()))
}

func TestCacheFlushBusy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	holder := distlock.NewRedisLock(client, "cache-flush", time.Minute)
	ok, err := holder.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	d := &deps{flusher: cache.New(client, time.Minute), lock: distlock.NewRedisLock(client, "cache-flush", time.Minute)}
	_, err = run(t, staticOpener(d), "cache", "flush")
	assert.ErrorContains(t, err, "in progress")
}

func TestCacheFlushDisabled(t *testing.T) {
	out, err := run(t, staticOpener(&deps{}), "cache", "flush")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
}

func TestBudget(t *testing.T) {
	out, err := run(t, nil, "budget", "--spend", "100", "--day", "10", "--days", "30", "--budget", "250")
	require.NoError(t, err)

	var p analytics.Projection
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 300.0, p.Projected)
	assert.Equal(t, -50.0, p.Remaining)
	assert.False(t, p.OnTrack)

	_, err = run(t, nil, "budget", "--spend", "100")
	assert.ErrorIs(t, err, analytics.ErrInvalidInput)
}
