package dashboard

import (
	"context"
	"time"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/domain"
)

// Repository is the read-only data access contract behind the views.
// Zero from/to bounds mean unbounded. Fetches are never implicitly limited.
type Repository interface {
	// FetchRecords returns every record matching the filter.
	FetchRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, error)

	// FetchCostEntries returns cost log entries created in [from, to).
	FetchCostEntries(ctx context.Context, from, to time.Time) ([]domain.CostEntry, error)

	// FetchJobEntries returns scrape jobs created in [from, to).
	FetchJobEntries(ctx context.Context, from, to time.Time) ([]domain.JobEntry, error)

	// CountRecords counts records matching the filter.
	CountRecords(ctx context.Context, filter domain.RecordFilter) (int, error)

	// CountOutreach counts matching records that were contacted and that
	// responded, for the lower funnel stages.
	CountOutreach(ctx context.Context, filter domain.RecordFilter) (contacted, responded int, err error)
}

// Cache stores computed views. Implementations must tolerate concurrent use.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Query is the common request shape of every view: a record filter plus
// optional user-supplied bounds. The filter's own From/To are ignored; the
// service derives them from Start/End.
type Query struct {
	Filter domain.RecordFilter `json:"filter"`
	Start  *time.Time          `json:"start,omitempty"`
	End    *time.Time          `json:"end,omitempty"`
}

// snapshot restricts the filter to the supplied bounds only, without a
// default window. Whole-population views use it.
func (q Query) snapshot() (domain.RecordFilter, error) {
	var from, to time.Time
	if q.Start != nil {
		from = *q.Start
	}
	if q.End != nil {
		to = *q.End
	}
	if q.Start != nil && q.End != nil && !from.Before(to) {
		return domain.RecordFilter{}, &analytics.RangeError{Start: from, End: to}
	}
	return q.Filter.WithRange(from, to), nil
}
