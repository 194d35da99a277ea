package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
)

var (
	eight          = decimal.NewFromInt(8)
	sixteen        = decimal.NewFromInt(16)
	one            = decimal.NewFromInt(1)
	weeklyFullTime = decimal.NewFromInt(44)
	minutesPerHour = decimal.NewFromInt(60)
)

// HoursFromMinutes converts a minute duration to decimal hours.
func HoursFromMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour)
}

// LunchDeduction returns the mandatory lunch for a shift: exactly 1 h when
// gross is at least 8 h, zero otherwise.
func LunchDeduction(gross decimal.Decimal) decimal.Decimal {
	if gross.GreaterThanOrEqual(eight) {
		return one
	}
	return decimal.Zero
}

// PerDayNormalCap derives the daily normal-hour cap from the active work
// pattern: min(44 / workDays, dailyGrossCap - 1). The -1 reflects the
// mandatory lunch hour on full-length shifts.
func PerDayNormalCap(workDaysInCycle int, dailyGrossCap decimal.Decimal) decimal.Decimal {
	if workDaysInCycle <= 0 {
		workDaysInCycle = 1
	}
	fromPattern := weeklyFullTime.Div(decimal.NewFromInt(int64(workDaysInCycle)))
	fromScheme := dailyGrossCap.Sub(one)
	if fromPattern.LessThan(fromScheme) {
		return fromPattern
	}
	return fromScheme
}

// MomHours splits a shift's gross hours into the standard breakdown: 1 h
// lunch on shifts of 8 h or more, normal up to the per-day cap and the
// remaining weekly allowance, the rest overtime.
func MomHours(
	gross decimal.Decimal,
	s scheme.Scheme,
	workDaysInCycle int,
	cumulativeWeeklyNormal decimal.Decimal,
	weeklyNormalCap decimal.Decimal,
) model.HourBreakdown {
	lunch := LunchDeduction(gross)
	net := gross.Sub(lunch)

	normal := net
	if cap := PerDayNormalCap(workDaysInCycle, scheme.DailyGrossCap(s)); normal.GreaterThan(cap) {
		normal = cap
	}
	if weekRemaining := weeklyNormalCap.Sub(cumulativeWeeklyNormal); normal.GreaterThan(weekRemaining) {
		normal = weekRemaining
	}
	if normal.IsNegative() {
		normal = decimal.Zero
	}
	ot := net.Sub(normal)

	return model.HourBreakdown{
		Gross:      gross,
		Lunch:      lunch,
		Normal:     normal,
		OT:         ot,
		RestDayPay: decimal.Zero,
		Paid:       normal.Add(ot),
	}
}

// ApgdD10Hours splits a shift's gross hours for an APGD-D10 employee. Days
// 1-5 of a consecutive run behave as MomHours without the weekly cap (the
// exemption trades the 44 h week for monthly caps). The 6th consecutive work
// day credits one rest-day-pay unit (8 h) with zero normal and the net hours
// as overtime; the 7th credits two units.
func ApgdD10Hours(
	gross decimal.Decimal,
	workDaysInCycle int,
	consecutiveDayIndex int,
) model.HourBreakdown {
	lunch := LunchDeduction(gross)
	net := gross.Sub(lunch)

	if consecutiveDayIndex >= 6 {
		rdp := eight
		if consecutiveDayIndex >= 7 {
			rdp = sixteen
		}
		return model.HourBreakdown{
			Gross:      gross,
			Lunch:      lunch,
			Normal:     decimal.Zero,
			OT:         net,
			RestDayPay: rdp,
			Paid:       net.Add(rdp),
		}
	}

	normal := net
	if cap := PerDayNormalCap(workDaysInCycle, scheme.DailyGrossCap(scheme.A)); normal.GreaterThan(cap) {
		normal = cap
	}
	ot := net.Sub(normal)

	return model.HourBreakdown{
		Gross:      gross,
		Lunch:      lunch,
		Normal:     normal,
		OT:         ot,
		RestDayPay: decimal.Zero,
		Paid:       normal.Add(ot),
	}
}

// DailyContractualHours implements scheme-B SO accounting: the daily normal
// allowance is minimumContractual / workDaysInMonth, the excess is overtime,
// and once the month's cumulative normal reaches the contractual minimum the
// entire net becomes overtime.
func DailyContractualHours(
	gross decimal.Decimal,
	cumulativeMonthlyNormal decimal.Decimal,
	minimumContractualMonth decimal.Decimal,
	workDaysInMonth int,
) model.HourBreakdown {
	lunch := LunchDeduction(gross)
	net := gross.Sub(lunch)

	if workDaysInMonth <= 0 {
		workDaysInMonth = 1
	}
	normalPerDay := minimumContractualMonth.Div(decimal.NewFromInt(int64(workDaysInMonth)))

	normal := net
	if normal.GreaterThan(normalPerDay) {
		normal = normalPerDay
	}
	if monthRemaining := minimumContractualMonth.Sub(cumulativeMonthlyNormal); normal.GreaterThan(monthRemaining) {
		normal = monthRemaining
	}
	if normal.IsNegative() {
		normal = decimal.Zero
	}
	ot := net.Sub(normal)

	return model.HourBreakdown{
		Gross:      gross,
		Lunch:      lunch,
		Normal:     normal,
		OT:         ot,
		RestDayPay: decimal.Zero,
		Paid:       normal.Add(ot),
	}
}
