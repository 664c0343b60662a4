package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/leadgen-crm/internal/domain"
)

// LeadRepo implements dashboard.Repository against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead analytics repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

// clauses accumulates WHERE conditions with positional placeholders.
type clauses struct {
	conds []string
	args  []any
}

func (c *clauses) add(cond string, arg any) {
	c.args = append(c.args, arg)
	c.conds = append(c.conds, fmt.Sprintf(cond, len(c.args)))
}

func (c *clauses) timeRange(col string, from, to time.Time) {
	if !from.IsZero() {
		c.add(col+" >= $%d", from)
	}
	if !to.IsZero() {
		c.add(col+" < $%d", to)
	}
}

func (c *clauses) String() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// recordWhere translates a filter into clauses over the businesses table
// aliased as b.
func recordWhere(f domain.RecordFilter) *clauses {
	c := &clauses{}
	if len(f.Cities) > 0 {
		c.add("b.city = ANY($%d)", pq.Array(f.Cities))
	}
	if len(f.Industries) > 0 {
		c.add("b.industry = ANY($%d)", pq.Array(f.Industries))
	}
	if len(f.EnrichmentStatuses) > 0 {
		c.add("b.enrichment_status = ANY($%d)", pq.Array(f.EnrichmentStatuses))
	}
	if len(f.Sources) > 0 {
		c.add("b.source = ANY($%d)", pq.Array(f.Sources))
	}
	c.timeRange("b.created_at", f.From, f.To)
	return c
}

// FetchRecords returns the businesses matching f.
func (r *LeadRepo) FetchRecords(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
	where := recordWhere(f)
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.created_at, b.updated_at, b.city, b.industry, b.source, b.enrichment_status
		FROM businesses b`+where.String()+`
		ORDER BY b.created_at`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rec            domain.Record
			city, industry sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, &city, &industry, &rec.Source, &rec.EnrichmentStatus); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		if city.Valid {
			rec.City = &city.String
		}
		if industry.Valid {
			rec.Industry = &industry.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return out, nil
}

// CountRecords counts the businesses matching f.
func (r *LeadRepo) CountRecords(ctx context.Context, f domain.RecordFilter) (int, error) {
	where := recordWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM businesses b`+where.String(), where.args...,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	return n, nil
}

// CountOutreach counts matching businesses that were contacted and that responded.
func (r *LeadRepo) CountOutreach(ctx context.Context, f domain.RecordFilter) (int, int, error) {
	where := recordWhere(f)
	var contacted, responded int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(o.contacted_at), COUNT(o.responded_at)
		FROM businesses b
		JOIN outreach o ON o.business_id = b.id`+where.String(), where.args...,
	).Scan(&contacted, &responded); err != nil {
		return 0, 0, fmt.Errorf("count outreach: %w", err)
	}
	return contacted, responded, nil
}

// FetchCostEntries returns api_cost_log rows created in [from, to).
func (r *LeadRepo) FetchCostEntries(ctx context.Context, from, to time.Time) ([]domain.CostEntry, error) {
	where := &clauses{}
	where.timeRange("created_at", from, to)
	rows, err := r.db.QueryContext(ctx, `
		SELECT created_at, service, operation_type, cost_usd
		FROM api_cost_log`+where.String()+`
		ORDER BY created_at`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("query cost log: %w", err)
	}
	defer rows.Close()

	var out []domain.CostEntry
	for rows.Next() {
		var c domain.CostEntry
		if err := rows.Scan(&c.CreatedAt, &c.Service, &c.OperationType, &c.CostUSD); err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost log: %w", err)
	}
	return out, nil
}

// FetchJobEntries returns search_jobs rows created in [from, to).
func (r *LeadRepo) FetchJobEntries(ctx context.Context, from, to time.Time) ([]domain.JobEntry, error) {
	where := &clauses{}
	where.timeRange("created_at", from, to)
	rows, err := r.db.QueryContext(ctx, `
		SELECT created_at, status, businesses_found, businesses_saved, apify_cost
		FROM search_jobs`+where.String()+`
		ORDER BY created_at`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("query search jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.JobEntry
	for rows.Next() {
		var j domain.JobEntry
		if err := rows.Scan(&j.CreatedAt, &j.Status, &j.BusinessesFound, &j.BusinessesSaved, &j.ApifyCost); err != nil {
			return nil, fmt.Errorf("scan search job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search jobs: %w", err)
	}
	return out, nil
}
