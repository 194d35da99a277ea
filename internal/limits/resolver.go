// Package limits resolves effective numeric constraint values for an employee
// from the constraint catalog: defaults plus scheme/product/rank overrides,
// first match wins. Monthly hour limits follow the same shape keyed by month
// length, with built-in fallback tables.
package limits

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// Constraint ids understood by the resolver.
const (
	ConstraintDailyHours      = "C1"
	ConstraintWeeklyNormal    = "C2"
	ConstraintConsecutiveDays = "C3"
	ConstraintMinRest         = "C4"
	ConstraintOffDaysPerWeek  = "C5"
	ConstraintPartTimeWeekly  = "C6"
	ConstraintShiftsPerDay    = "C16"
	ConstraintMonthlyOT       = "C17"
)

// Resolver answers per-employee constraint value lookups.
type Resolver struct {
	records map[string]model.ConstraintRecord
	monthly *model.MonthlyHourLimits
}

// NewResolver indexes the constraint catalog. monthly may be nil.
func NewResolver(catalog []model.ConstraintRecord, monthly *model.MonthlyHourLimits) *Resolver {
	records := make(map[string]model.ConstraintRecord, len(catalog))
	for _, rec := range catalog {
		records[rec.ID] = rec
	}
	return &Resolver{records: records, monthly: monthly}
}

// Enforcement returns the catalog enforcement for a constraint, defaulting to
// hard when the catalog has no record.
func (r *Resolver) Enforcement(constraintID string) string {
	if rec, ok := r.records[constraintID]; ok {
		return rec.Enforcement
	}
	return model.EnforcementHard
}

// Resolve returns the effective numeric limit of a constraint for an employee.
// Lookup order: catalog scheme override (first matching rule), catalog default,
// built-in regime default.
func (r *Resolver) Resolve(constraintID string, e *model.Employee) decimal.Decimal {
	if rec, ok := r.records[constraintID]; ok {
		if override, ok := rec.SchemeOverrides[e.Scheme]; ok {
			if override.Scalar != nil {
				return decimal.NewFromFloat(*override.Scalar)
			}
			for _, rule := range override.Rules {
				if matchesRule(rule, e) {
					return decimal.NewFromFloat(rule.Value)
				}
			}
		}
		return decimal.NewFromFloat(rec.DefaultValue)
	}
	return builtinDefault(constraintID, e)
}

func matchesRule(rule model.OverrideRule, e *model.Employee) bool {
	if len(rule.ProductTypes) > 0 && !contains(rule.ProductTypes, e.ProductType) {
		return false
	}
	if len(rule.Ranks) > 0 && !contains(rule.Ranks, e.Rank) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// builtinDefault supplies regime defaults when the catalog carries no record.
func builtinDefault(constraintID string, e *model.Employee) decimal.Decimal {
	s := e.SchemeLetter()
	apgd := e.IsApgdD10()
	switch constraintID {
	case ConstraintDailyHours:
		return scheme.DailyGrossCap(s)
	case ConstraintWeeklyNormal:
		return scheme.WeeklyNormalCap(s, 5)
	case ConstraintConsecutiveDays:
		if apgd {
			return decimal.NewFromInt(scheme.MaxConsecutiveDaysApgdD10)
		}
		return decimal.NewFromInt(scheme.MaxConsecutiveDays)
	case ConstraintMinRest:
		if apgd {
			return decimal.NewFromInt(scheme.MinRestHoursApgdD10)
		}
		return decimal.NewFromInt(scheme.MinRestHours)
	case ConstraintOffDaysPerWeek:
		return decimal.NewFromInt(1)
	case ConstraintPartTimeWeekly:
		return scheme.WeeklyNormalCap(scheme.P, 5)
	case ConstraintShiftsPerDay:
		if s == scheme.P {
			return decimal.NewFromInt(scheme.MaxShiftsPerDayP)
		}
		return decimal.NewFromInt(1)
	case ConstraintMonthlyOT:
		return standardMonthlyOTCap
	}
	return decimal.Zero
}

// Monthly OT cap tables per month length. The standard cap is 72 h for every
// month length; the APGD-D10 cap scales at 4 h per calendar day (124 h in a
// 31-day month).
var (
	standardMonthlyOTCap = decimal.NewFromInt(72)
	apgdMonthlyOTCap     = map[int]decimal.Decimal{
		28: decimal.NewFromInt(112),
		29: decimal.NewFromInt(116),
		30: decimal.NewFromInt(120),
		31: decimal.NewFromInt(124),
	}
	weeklyFullTime = decimal.NewFromInt(44)
	daysPerWeek    = decimal.NewFromInt(7)
)

// MonthlyOTCap returns the overtime cap for an employee in a calendar month.
// Catalog C17 overrides win; the monthlyHourLimits table keyed by month length
// is consulted next; built-in tables close the gap.
func (r *Resolver) MonthlyOTCap(e *model.Employee, year int, month time.Month) decimal.Decimal {
	if _, ok := r.records[ConstraintMonthlyOT]; ok {
		return r.Resolve(ConstraintMonthlyOT, e)
	}
	days := timeutil.DaysInMonth(year, month)
	if r.monthly != nil {
		if v, ok := r.monthly.OvertimeCap[strconv.Itoa(days)]; ok {
			return decimal.NewFromFloat(v)
		}
	}
	if e.IsApgdD10() {
		if cap, ok := apgdMonthlyOTCap[days]; ok {
			return cap
		}
	}
	return standardMonthlyOTCap
}

// MonthlyContractual returns the minimum contractual normal hours for a
// calendar month: the monthlyHourLimits table when present, else
// 44 h x weeks-in-month rounded to two decimals.
func (r *Resolver) MonthlyContractual(year int, month time.Month) decimal.Decimal {
	days := timeutil.DaysInMonth(year, month)
	if r.monthly != nil {
		if v, ok := r.monthly.MinimumContractual[strconv.Itoa(days)]; ok {
			return decimal.NewFromFloat(v)
		}
	}
	return weeklyFullTime.
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysPerWeek).
		Round(2)
}

// CalculationMethod returns the monthly hour calculation method, defaulting to
// monthly when no monthlyHourLimits block is present.
func (r *Resolver) CalculationMethod() string {
	if r.monthly != nil && r.monthly.CalculationMethod != "" {
		return r.monthly.CalculationMethod
	}
	return model.CalculationMethodMonthly
}
