package generic

// =============================================================================
// PERIOD - Inclusive span of calendar days
// =============================================================================

// Period is a closed interval [Start, End] of calendar days.
//
// Examples:
//   - A single PTO day: Mar 4 - Mar 4
//   - A remote week: Mar 4 - Mar 8
//   - An export window: Jan 1 - Mar 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether Start is not after End.
func (p Period) Valid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Overlaps reports whether two closed intervals share at least one day.
// Weekend days count; callers that care about weekdays check edges separately.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
