package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the analytics engine.
var (
	ErrInvalidRange       = errors.New("start must be before end")
	ErrInvalidInput       = errors.New("invalid projection input")
	ErrInconsistentFunnel = errors.New("funnel stage exceeds previous stage")
	ErrInvalidGranularity = errors.New("unknown granularity")
	ErrInvalidDimension   = errors.New("unknown comparison dimension")
	ErrInvalidMetric      = errors.New("unknown ranking metric")
	ErrInvalidActivity    = errors.New("unknown heatmap activity type")
	ErrInvalidGroupBy     = errors.New("unknown cost grouping")
)

// RangeError reports a reversed or empty time range.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: start=%s end=%s", ErrInvalidRange,
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// InconsistentFunnelError is a non-fatal signal that a later funnel stage
// counted more entries than the stage before it. Source counts may be
// approximate, so callers log it and keep the computed funnel.
type InconsistentFunnelError struct {
	Stage     string
	Count     int
	Previous  string
	PrevCount int
}

func (e *InconsistentFunnelError) Error() string {
	return fmt.Sprintf("%v: %s=%d > %s=%d", ErrInconsistentFunnel,
		e.Stage, e.Count, e.Previous, e.PrevCount)
}

func (e *InconsistentFunnelError) Unwrap() error { return ErrInconsistentFunnel }

// IsValidation reports whether err is caused by bad caller input, as opposed
// to a failure in a collaborator. The HTTP layer maps these to 400.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidRange, ErrInvalidInput, ErrInvalidGranularity,
		ErrInvalidDimension, ErrInvalidMetric, ErrInvalidActivity, ErrInvalidGroupBy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
