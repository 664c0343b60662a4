package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/leadgen-crm/internal/api"
	"github.com/ignite/leadgen-crm/internal/domain"
	"github.com/ignite/leadgen-crm/internal/pkg/distlock"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// Flusher drops cached views.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// deps are the connections a command needs. flusher and lock are nil when
// caching is disabled.
type deps struct {
	svc     api.Dashboard
	loc     *time.Location
	flusher Flusher
	lock    distlock.DistLock
	close   func() error
}

type opener func(ctx context.Context) (*deps, error)

// queryFlags are the filter flags shared by every view.
type queryFlags struct {
	cities     []string
	industries []string
	statuses   []string
	sources    []string
	start      string
	end        string
	pretty     bool
}

func newRootCmd(open opener) *cobra.Command {
	var qf queryFlags

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Lead-gen analytics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringSliceVar(&qf.cities, "cities", nil, "Restrict to these cities")
	pf.StringSliceVar(&qf.industries, "industries", nil, "Restrict to these industries")
	pf.StringSliceVar(&qf.statuses, "statuses", nil, "Restrict to enrichment statuses (pending, enriched, failed)")
	pf.StringSliceVar(&qf.sources, "sources", nil, "Restrict to lead sources")
	pf.StringVar(&qf.start, "start", "", "Window start (RFC 3339 or YYYY-MM-DD)")
	pf.StringVar(&qf.end, "end", "", "Window end (RFC 3339 or YYYY-MM-DD)")
	pf.BoolVar(&qf.pretty, "pretty", false, "Indent JSON output")

	root.AddCommand(newViewCmd(open, &qf))
	root.AddCommand(newCacheCmd(open))
	root.AddCommand(newBudgetCmd())
	return root
}

// withDeps opens dependencies for the duration of fn.
func withDeps(ctx context.Context, open opener, fn func(*deps) error) error {
	d, err := open(ctx)
	if err != nil {
		return err
	}
	if d.close != nil {
		defer d.close()
	}
	return fn(d)
}

func parseBound(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%q is not RFC 3339 or YYYY-MM-DD", raw)
	}
	return &t, nil
}

func (qf *queryFlags) query(loc *time.Location) (dashboard.Query, error) {
	for _, s := range qf.statuses {
		if _, err := domain.ParseEnrichmentStatus(strings.TrimSpace(s)); err != nil {
			return dashboard.Query{}, err
		}
	}
	start, err := parseBound(qf.start, loc)
	if err != nil {
		return dashboard.Query{}, fmt.Errorf("--start: %w", err)
	}
	end, err := parseBound(qf.end, loc)
	if err != nil {
		return dashboard.Query{}, fmt.Errorf("--end: %w", err)
	}
	return dashboard.Query{
		Filter: domain.RecordFilter{
			Cities:             qf.cities,
			Industries:         qf.industries,
			EnrichmentStatuses: qf.statuses,
			Sources:            qf.sources,
		},
		Start: start,
		End:   end,
	}, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
