package analytics

import "time"

// DefaultWindow is the span used when a caller supplies no range.
const DefaultWindow = 30 * 24 * time.Hour

// TimeWindow is a half-open interval [From, To).
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Duration returns To - From.
func (w TimeWindow) Duration() time.Duration { return w.To.Sub(w.From) }

// Contains reports whether From <= t < To.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// PreviousOf returns the window of identical length immediately preceding w.
// "Last 30 days" therefore compares against the prior 30 days, not the
// previous calendar month.
func PreviousOf(w TimeWindow) TimeWindow {
	return TimeWindow{From: w.From.Add(-w.Duration()), To: w.From}
}

// Resolver turns optional user-supplied bounds into a concrete window.
// The zero value uses time.Now and DefaultWindow.
type Resolver struct {
	Now         func() time.Time
	DefaultSpan time.Duration
}

// Resolve normalizes start/end into a TimeWindow:
//
//	both nil    -> [now-span, now)
//	only start  -> [start, start+span)
//	only end    -> [end-span, end)
//	start >= end -> *RangeError
func (r Resolver) Resolve(start, end *time.Time) (TimeWindow, error) {
	span := r.DefaultSpan
	if span <= 0 {
		span = DefaultWindow
	}
	switch {
	case start == nil && end == nil:
		now := r.now()
		return TimeWindow{From: now.Add(-span), To: now}, nil
	case start == nil:
		return TimeWindow{From: end.Add(-span), To: *end}, nil
	case end == nil:
		return TimeWindow{From: *start, To: start.Add(span)}, nil
	}
	if !start.Before(*end) {
		return TimeWindow{}, &RangeError{Start: *start, End: *end}
	}
	return TimeWindow{From: *start, To: *end}, nil
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve is a convenience wrapper over a zero Resolver pinned to now.
func Resolve(start, end *time.Time, now time.Time) (TimeWindow, error) {
	return Resolver{Now: func() time.Time { return now }}.Resolve(start, end)
}
