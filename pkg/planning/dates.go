package planning

import "time"

// The planning horizon is bounded by two sentinel dates. Dates outside the
// horizon never appear on a timeline; the sentinels mark open-ended problem
// regions and unconstrained search directions.
var (
	// InfinitePast is the earliest representable planning date.
	InfinitePast = time.Date(1971, time.January, 1, 0, 0, 0, 0, time.UTC)

	// InfiniteFuture is the latest representable planning date.
	InfiniteFuture = time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// dateGiven reports whether a date argument was supplied by the caller.
// The zero time.Time means "not specified".
func dateGiven(d time.Time) bool { return !d.IsZero() }

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range, swapping the bounds when given out of order.
func NewDateRange(start, end time.Time) DateRange {
	if end.Before(start) {
		start, end = end, start
	}
	return DateRange{Start: start, End: end}
}

// Within reports whether d falls inside the range.
func (r DateRange) Within(d time.Time) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

// Duration returns the length of the range.
func (r DateRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// Intersects reports whether two ranges overlap.
func (r DateRange) Intersects(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// EffectiveAlways is the date range covering the whole planning horizon.
func EffectiveAlways() DateRange {
	return DateRange{Start: InfinitePast, End: InfiniteFuture}
}

// minDate returns the earlier of two dates.
func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// maxDate returns the later of two dates.
func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
