// Package holiday models the public-holiday calendar of a planning horizon.
// Holidays never force an off day; the work pattern and explicit leave decide
// that. The calendar only flags dates for the output timeline and reports
// input anomalies as warnings.
package holiday

import (
	"fmt"
	"sort"
	"time"

	"github.com/amara/rosterd/internal/timeutil"
)

// Calendar is a validated set of holiday dates inside a horizon.
type Calendar struct {
	dates    map[string]time.Time
	warnings []string
}

// NewCalendar builds a calendar from raw dates, collecting warnings for
// duplicates and for dates outside [start, end].
func NewCalendar(raw []time.Time, start, end time.Time) *Calendar {
	c := &Calendar{dates: make(map[string]time.Time, len(raw))}
	start = timeutil.Truncate(start)
	end = timeutil.Truncate(end)

	for _, d := range raw {
		d = timeutil.Truncate(d)
		key := timeutil.FormatDate(d)
		if d.Before(start) || d.After(end) {
			c.warnings = append(c.warnings, fmt.Sprintf(
				"HOLIDAY_OUT_OF_HORIZON: %s outside [%s, %s]",
				key, timeutil.FormatDate(start), timeutil.FormatDate(end)))
			continue
		}
		if _, dup := c.dates[key]; dup {
			c.warnings = append(c.warnings, "HOLIDAY_DUPLICATE: "+key)
			continue
		}
		c.dates[key] = d
	}
	return c
}

// IsHoliday reports whether the date is a public holiday.
func (c *Calendar) IsHoliday(d time.Time) bool {
	_, ok := c.dates[timeutil.FormatDate(d)]
	return ok
}

// Dates returns the holiday dates in chronological order.
func (c *Calendar) Dates() []time.Time {
	out := make([]time.Time, 0, len(c.dates))
	for _, d := range c.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Warnings returns the anomalies observed while building the calendar.
func (c *Calendar) Warnings() []string {
	return c.warnings
}

// Count returns the number of holidays in the calendar.
func (c *Calendar) Count() int {
	return len(c.dates)
}
