package model

import (
	"time"

	"github.com/amara/rosterd/internal/timeutil"
)

// OffMarker is the work-pattern entry (and output shift code) for an off day.
const OffMarker = "O"

// WorkPattern is an ordered cycle of shift codes and off markers. Applied to a
// date with an employee rotation offset k, the pattern position for date d is
// (daysFromAnchor(d) + k) mod len.
type WorkPattern []string

// Len returns the cycle length.
func (p WorkPattern) Len() int {
	return len(p)
}

// WorkDays returns the number of working (non-off) entries in the cycle.
func (p WorkPattern) WorkDays() int {
	n := 0
	for _, c := range p {
		if c != OffMarker {
			n++
		}
	}
	return n
}

// WorkDaysPerWeek estimates working days in a 7-day stretch of the cycle,
// rounded up. Used for scheme-P weekly cap selection.
func (p WorkPattern) WorkDaysPerWeek() int {
	if len(p) == 0 {
		return 0
	}
	// w work days per L cycle days, scaled to a week.
	days := (p.WorkDays()*7 + len(p) - 1) / len(p)
	if days > 7 {
		days = 7
	}
	return days
}

// PositionFor returns the pattern position for a date given the pattern anchor
// and the employee's rotation offset. The anchor is position 0 at offset 0.
func (p WorkPattern) PositionFor(anchor, date time.Time, offset int) int {
	if len(p) == 0 {
		return 0
	}
	pos := (timeutil.DaysBetween(anchor, date) + offset) % len(p)
	if pos < 0 {
		pos += len(p)
	}
	return pos
}

// ShiftCodeFor returns the prescribed shift code for a date, or OffMarker when
// the pattern prescribes an off day.
func (p WorkPattern) ShiftCodeFor(anchor, date time.Time, offset int) string {
	if len(p) == 0 {
		return OffMarker
	}
	return p[p.PositionFor(anchor, date, offset)]
}

// IsWorkDate reports whether the pattern prescribes work on the given date.
func (p WorkPattern) IsWorkDate(anchor, date time.Time, offset int) bool {
	return p.ShiftCodeFor(anchor, date, offset) != OffMarker
}
