package analytics

import (
	"fmt"
	"time"
)

// Projection is a month-end spend estimate against a budget.
type Projection struct {
	SpendToDate  float64 `json:"spend_to_date"`
	Projected    float64 `json:"projected"`
	Budget       float64 `json:"budget"`
	Remaining    float64 `json:"remaining"`
	PercentUsed  float64 `json:"percent_used"`
	OnTrack      bool    `json:"on_track"`
	DayOfPeriod  int     `json:"day_of_period"`
	DaysInPeriod int     `json:"days_in_period"`
}

// Project linearly extrapolates spendToDate over the whole period:
//
//	projected = spendToDate / dayOfPeriod * daysInPeriod
//
// This is a straight day-rate extrapolation, not a forecast; it ignores
// seasonality and intra-month ramps. Remaining is budget minus projected and
// goes negative when the budget will be overrun. PercentUsed is spend so far
// against the budget (0 when no budget is set).
func Project(spendToDate float64, dayOfPeriod, daysInPeriod int, budget float64) (Projection, error) {
	if dayOfPeriod <= 0 || daysInPeriod <= 0 {
		return Projection{}, fmt.Errorf("%w: dayOfPeriod=%d daysInPeriod=%d",
			ErrInvalidInput, dayOfPeriod, daysInPeriod)
	}
	projected := spendToDate / float64(dayOfPeriod) * float64(daysInPeriod)
	return Projection{
		SpendToDate:  Round2(spendToDate),
		Projected:    Round2(projected),
		Budget:       budget,
		Remaining:    Round2(budget - projected),
		PercentUsed:  percentOf(spendToDate, budget),
		OnTrack:      projected <= budget,
		DayOfPeriod:  dayOfPeriod,
		DaysInPeriod: daysInPeriod,
	}, nil
}

// MonthPeriod returns the calendar-month billing period containing now in
// loc: the 1-based day of month, the number of days in the month, and the
// instant the month started.
func MonthPeriod(now time.Time, loc *time.Location) (dayOfPeriod, daysInPeriod int, start time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	daysInPeriod = start.AddDate(0, 1, -1).Day()
	return t.Day(), daysInPeriod, start
}
