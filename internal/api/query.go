package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/leadgen-crm/internal/domain"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

var errBadParam = errors.New("bad query parameter")

// filterParams mirrors the common query string before it becomes a
// dashboard.Query.
type filterParams struct {
	Cities     []string `validate:"max=50,dive,max=120"`
	Industries []string `validate:"max=50,dive,max=120"`
	Statuses   []string `validate:"dive,oneof=pending enriched failed"`
	Sources    []string `validate:"max=50,dive,max=120"`
}

// splitList reads a comma-separated list, trimming blanks.
func splitList(v url.Values, key string) []string {
	raw := v.Get(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseTime accepts RFC 3339 or YYYY-MM-DD; dates are midnight in loc.
func parseTime(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not RFC 3339 or YYYY-MM-DD", errBadParam, raw)
	}
	return &t, nil
}

func (h *Handlers) parseQuery(r *http.Request) (dashboard.Query, error) {
	v := r.URL.Query()
	p := filterParams{
		Cities:     splitList(v, "cities"),
		Industries: splitList(v, "industries"),
		Statuses:   splitList(v, "statuses"),
		Sources:    splitList(v, "sources"),
	}
	if err := h.validate.Struct(p); err != nil {
		return dashboard.Query{}, err
	}

	start, err := parseTime(v.Get("start"), h.loc)
	if err != nil {
		return dashboard.Query{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseTime(v.Get("end"), h.loc)
	if err != nil {
		return dashboard.Query{}, fmt.Errorf("end: %w", err)
	}

	return dashboard.Query{
		Filter: domain.RecordFilter{
			Cities:             p.Cities,
			Industries:         p.Industries,
			EnrichmentStatuses: p.Statuses,
			Sources:            p.Sources,
		},
		Start: start,
		End:   end,
	}, nil
}

type limitParam struct {
	Limit int `validate:"min=0,max=100"`
}

// parseLimit reads ?limit=, defaulting to def.
func (h *Handlers) parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not a number", errBadParam, raw)
	}
	if err := h.validate.Struct(limitParam{Limit: n}); err != nil {
		return 0, err
	}
	return n, nil
}
