// Package scheme models the labour-law work regimes the roster engine
// distinguishes: scheme A (full-time long-shift), scheme B (full-time
// moderate-shift) and scheme P (part-time).
package scheme

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scheme is a labour-law work regime classification.
type Scheme string

const (
	// A is the full-time long-shift regime (14 h gross daily cap).
	A Scheme = "A"
	// B is the full-time moderate-shift regime (13 h gross daily cap).
	B Scheme = "B"
	// P is the part-time regime (9 h gross daily cap, up to two shifts per day).
	P Scheme = "P"
)

var schemes = map[Scheme]struct{}{A: {}, B: {}, P: {}}

// Normalize parses a raw scheme string. "Scheme A", "a" and "A" all map to A.
func Normalize(raw string) (Scheme, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.TrimSpace(strings.TrimPrefix(normalized, "SCHEME"))
	s := Scheme(normalized)
	if _, ok := schemes[s]; !ok {
		return "", fmt.Errorf("unknown scheme: %q", raw)
	}
	return s, nil
}

// productAPO is the product type that, combined with scheme A, qualifies an
// employee for the APGD-D10 exemption.
const productAPO = "APO"

// IsApgdD10 reports whether the scheme/product combination qualifies for the
// APGD-D10 exemption. Input flags are never consulted; qualification is
// automatic for scheme A with product APO.
func IsApgdD10(s Scheme, productType string) bool {
	return s == A && strings.EqualFold(strings.TrimSpace(productType), productAPO)
}

// Hour limits per regime. Values are hours.
var (
	dailyCapA = decimal.NewFromInt(14)
	dailyCapB = decimal.NewFromInt(13)
	dailyCapP = decimal.NewFromInt(9)

	weeklyNormalFullTime = decimal.NewFromInt(44)

	// Part-time weekly caps depend on how many days per week the pattern works.
	weeklyNormalP4Day = decimal.RequireFromString("34.98")
	weeklyNormalP5Day = decimal.RequireFromString("29.98")
)

// DailyGrossCap returns the daily gross-hour cap for a scheme.
func DailyGrossCap(s Scheme) decimal.Decimal {
	switch s {
	case A:
		return dailyCapA
	case B:
		return dailyCapB
	case P:
		return dailyCapP
	}
	return decimal.Zero
}

// WeeklyNormalCap returns the weekly normal-hour cap for a scheme.
// workDaysPerWeek only matters for scheme P, where a 4-day week carries a
// higher cap than a 5-7-day week.
func WeeklyNormalCap(s Scheme, workDaysPerWeek int) decimal.Decimal {
	if s == P {
		if workDaysPerWeek <= 4 {
			return weeklyNormalP4Day
		}
		return weeklyNormalP5Day
	}
	return weeklyNormalFullTime
}

// Regime-wide rule constants.
const (
	// MaxConsecutiveDays is the standard consecutive working-day limit.
	MaxConsecutiveDays = 12
	// MaxConsecutiveDaysApgdD10 is the APGD-D10 consecutive working-day limit,
	// one worked off-day included.
	MaxConsecutiveDaysApgdD10 = 8
	// MinRestHours is the standard minimum rest between two shifts.
	MinRestHours = 11
	// MinRestHoursApgdD10 is the relaxed APGD-D10 inter-shift rest.
	MinRestHoursApgdD10 = 8
	// MinRestHoursSameDayP is the minimum gap between a part-timer's two
	// same-day shifts.
	MinRestHoursSameDayP = 1
	// MaxShiftsPerDayP is the part-time daily shift allowance.
	MaxShiftsPerDayP = 2
)
