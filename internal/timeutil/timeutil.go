// Package timeutil provides time conversion utilities for the rostering engine.
// All time-of-day values are represented as minutes from midnight (0-1439).
// Civil dates are time.Time values at midnight UTC; the core carries no
// timezone offsets.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat indicates a time string is not in HH:MM format.
var ErrInvalidTimeFormat = errors.New("invalid time format: expected HH:MM")

// ErrInvalidDateFormat indicates a date string is not in YYYY-MM-DD format.
var ErrInvalidDateFormat = errors.New("invalid date format: expected YYYY-MM-DD")

// MinutesPerDay is the number of minutes in a day (1440).
const MinutesPerDay = 1440

// MaxMinutesFromMidnight is the maximum valid minutes from midnight (1439 = 23:59).
const MaxMinutesFromMidnight = 1439

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the wire format for local datetimes in assignments
// (ISO-8601, no offset).
const DateTimeLayout = "2006-01-02T15:04:05"

// ParseTimeString parses "HH:MM" format to minutes from midnight.
// Returns ErrInvalidTimeFormat for malformed input.
func ParseTimeString(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, ErrInvalidTimeFormat
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ErrInvalidTimeFormat
	}
	return h*60 + m, nil
}

// MinutesToString formats minutes as "HH:MM".
// For durations >= 24 hours, hours will exceed 23 (e.g., 1500 -> "25:00").
func MinutesToString(minutes int) string {
	if minutes < 0 {
		return "-" + MinutesToString(-minutes)
	}
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// IsValidTimeOfDay checks if minutes represents a valid time of day (0-1439).
func IsValidTimeOfDay(minutes int) bool {
	return minutes >= 0 && minutes <= MaxMinutesFromMidnight
}

// ShiftDurationMinutes returns the duration of a shift given its start and end
// in minutes from midnight. An end before the start means the shift crosses
// midnight and a full day is added.
func ShiftDurationMinutes(startMinutes, endMinutes int) int {
	if endMinutes < startMinutes {
		return endMinutes + MinutesPerDay - startMinutes
	}
	return endMinutes - startMinutes
}

// MinutesToDateTime creates a time.Time from minutes on a given civil date.
// Minutes beyond MinutesPerDay roll over into the next day, which is how
// cross-midnight shift ends are materialised.
func MinutesToDateTime(date time.Time, minutes int) time.Time {
	return time.Date(
		date.Year(),
		date.Month(),
		date.Day(),
		0, minutes, 0, 0,
		time.UTC,
	)
}

// ParseDate parses a "YYYY-MM-DD" string into a civil date (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return d, nil
}

// FormatDate renders a civil date as "YYYY-MM-DD".
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Truncate strips the time-of-day component, returning midnight UTC of the
// same calendar day.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b (b - a).
// Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}

// DatesBetween returns every civil date in [start, end] inclusive, in
// chronological order. An empty slice is returned when end precedes start.
func DatesBetween(start, end time.Time) []time.Time {
	start = Truncate(start)
	end = Truncate(end)
	if end.Before(start) {
		return nil
	}
	dates := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfMonth returns midnight UTC on the first day of the date's month.
func StartOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey identifies a calendar month as "YYYY-MM" for per-month grouping.
func MonthKey(d time.Time) string {
	return d.Format("2006-01")
}

// SameMonth reports whether two dates fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
