package generic

// =============================================================================
// PERIOD - Closed range of calendar days
// =============================================================================

// Period is a closed range of days [Start, End].
//
// Examples:
//   - A season period: Jan 4 - Feb 14
//   - A holiday block: Dec 20 - Dec 27
//   - The nights of a stay: check-in .. check-out - 1
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NightsOf returns the nights of a stay as a period. nights must be positive.
func NightsOf(checkIn TimePoint, nights int) Period {
	return Period{Start: checkIn, End: checkIn.AddDays(nights - 1)}
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return p.End.AfterOrEqual(p.Start)
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two closed ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Len is the number of days in the period.
func (p Period) Len() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
