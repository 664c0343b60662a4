// Package analytics is the aggregation and time-bucketing engine behind the
// CRM dashboards.
//
// Every exported function is a pure computation over in-memory collections
// that were already fetched by the caller. Nothing in this package performs
// I/O, holds state between calls, or needs locking: inputs are never
// mutated and every result is freshly allocated, so the functions are safe
// to call concurrently from any number of request goroutines.
//
// Zero totals, empty inputs and missing keys are handled by explicit default
// policies (0 percentages, flat heatmaps, sentinel group labels) rather than
// errors. Only invalid arguments (reversed ranges, non-positive projection
// divisors, unknown enum values) produce errors.
package analytics
