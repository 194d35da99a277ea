package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// Context carries the frozen lookups the post-processor needs. All cumulative
// state lives in local values threaded through the passes.
type Context struct {
	Employees       map[string]*model.Employee
	ShiftDurations  map[string]decimal.Decimal // shift code -> gross hours
	ShiftStarts     map[string]int             // shift code -> start minutes
	PatternWorkDays map[string]int             // requirement id -> work days per cycle
	PatternWeekDays map[string]int             // requirement id -> work days per week
	Resolver        *limits.Resolver
	HorizonStart    time.Time
}

// PostProcess rewrites the hour breakdown of every ASSIGNED row in two
// passes: per-assignment splits in chronological order with cumulative
// weekly/monthly state, then per-employee monthly overtime cap enforcement by
// proportional redistribution of overtime into normal hours.
//
// The passes derive everything from assignment metadata, never from the hour
// fields already present, so running PostProcess twice yields identical rows.
func PostProcess(ctx Context, assignments []model.Assignment) []string {
	warnings := breakdownPass(ctx, assignments)
	warnings = append(warnings, EnforceMonthlyOTCaps(ctx, assignments)...)
	return warnings
}

// employeeRun is the mutable accounting state threaded through one employee's
// chronological assignments.
type employeeRun struct {
	weekIndex        int
	cumWeeklyNormal  decimal.Decimal
	monthKey         string
	cumMonthlyNormal decimal.Decimal
	workDaysInMonth  int
	consecutiveDays  int
	lastWorkDate     time.Time
}

func breakdownPass(ctx Context, assignments []model.Assignment) []string {
	var warnings []string

	byEmployee := make(map[string][]*model.Assignment)
	for i := range assignments {
		a := &assignments[i]
		if a.Status != model.StatusAssigned || a.EmployeeID == nil {
			a.Hours = model.ZeroHours()
			continue
		}
		byEmployee[*a.EmployeeID] = append(byEmployee[*a.EmployeeID], a)
	}

	employeeIDs := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		employeeIDs = append(employeeIDs, id)
	}
	sort.Strings(employeeIDs)

	for _, id := range employeeIDs {
		rows := byEmployee[id]
		employee, ok := ctx.Employees[id]
		if !ok {
			warnings = append(warnings,
				fmt.Sprintf("%s: assignment references employee %s", WarnCodeUnknownEmployee, id))
			for _, a := range rows {
				a.Hours = model.ZeroHours()
			}
			continue
		}

		sort.Slice(rows, func(i, j int) bool {
			di, dj := time.Time(rows[i].Date), time.Time(rows[j].Date)
			if !di.Equal(dj) {
				return di.Before(dj)
			}
			return ctx.ShiftStarts[rows[i].ShiftCode] < ctx.ShiftStarts[rows[j].ShiftCode]
		})

		policy := PolicyFor(employee, ctx.Resolver)
		run := employeeRun{
			weekIndex:        -1,
			cumWeeklyNormal:  decimal.Zero,
			cumMonthlyNormal: decimal.Zero,
		}

		for _, a := range rows {
			date := timeutil.Truncate(time.Time(a.Date))

			gross, ok := ctx.ShiftDurations[a.ShiftCode]
			if !ok {
				warnings = append(warnings,
					fmt.Sprintf("%s: shift %s on %s", WarnCodeUnknownShift, a.ShiftCode, timeutil.FormatDate(date)))
				a.Hours = model.ZeroHours()
				continue
			}

			if week := timeutil.DaysBetween(ctx.HorizonStart, date) / 7; week != run.weekIndex {
				run.weekIndex = week
				run.cumWeeklyNormal = decimal.Zero
			}
			if mk := timeutil.MonthKey(date); mk != run.monthKey {
				run.monthKey = mk
				run.cumMonthlyNormal = decimal.Zero
				run.workDaysInMonth = countWorkDaysInMonth(rows, date)
			}
			if !run.lastWorkDate.IsZero() && timeutil.DaysBetween(run.lastWorkDate, date) == 1 {
				run.consecutiveDays++
			} else if !date.Equal(run.lastWorkDate) {
				run.consecutiveDays = 1
			}
			run.lastWorkDate = date

			a.Hours = breakdownFor(ctx, policy, employee, a, gross, date, run)
			run.cumWeeklyNormal = run.cumWeeklyNormal.Add(a.Hours.Normal)
			run.cumMonthlyNormal = run.cumMonthlyNormal.Add(a.Hours.Normal)
		}
	}

	return warnings
}

func breakdownFor(
	ctx Context,
	policy PolicyKind,
	employee *model.Employee,
	a *model.Assignment,
	gross decimal.Decimal,
	date time.Time,
	run employeeRun,
) model.HourBreakdown {
	workDays := ctx.PatternWorkDays[a.RequirementID]

	switch policy {
	case PolicyApgdD10:
		return ApgdD10Hours(gross, workDays, run.consecutiveDays)

	case PolicyDailyContractual:
		contractual := ctx.Resolver.MonthlyContractual(date.Year(), date.Month())
		return DailyContractualHours(gross, run.cumMonthlyNormal, contractual, run.workDaysInMonth)

	default:
		weeklyCap := ctx.Resolver.Resolve(limits.ConstraintWeeklyNormal, employee)
		if employee.SchemeLetter() == scheme.P {
			weeklyCap = scheme.WeeklyNormalCap(scheme.P, ctx.PatternWeekDays[a.RequirementID])
		}
		return MomHours(gross, employee.SchemeLetter(), workDays, run.cumWeeklyNormal, weeklyCap)
	}
}

// countWorkDaysInMonth counts the distinct assigned dates of one employee
// inside the month containing the given date.
func countWorkDaysInMonth(rows []*model.Assignment, ref time.Time) int {
	seen := make(map[string]struct{})
	for _, a := range rows {
		d := time.Time(a.Date)
		if timeutil.SameMonth(d, ref) {
			seen[timeutil.FormatDate(d)] = struct{}{}
		}
	}
	return len(seen)
}

// EnforceMonthlyOTCaps enforces the per-employee monthly overtime caps by
// scaling overtime down proportionally and crediting the difference to normal
// hours, preserving the total worked time. The backend already bounds
// overtime at the template level but not after replication, so this runs for
// every mode.
func EnforceMonthlyOTCaps(ctx Context, assignments []model.Assignment) []string {
	var warnings []string

	type bucket struct {
		employeeID string
		month      string
	}
	groups := make(map[bucket][]*model.Assignment)
	for i := range assignments {
		a := &assignments[i]
		if a.Status != model.StatusAssigned || a.EmployeeID == nil {
			continue
		}
		groups[bucket{*a.EmployeeID, timeutil.MonthKey(time.Time(a.Date))}] = append(
			groups[bucket{*a.EmployeeID, timeutil.MonthKey(time.Time(a.Date))}], a)
	}

	keys := make([]bucket, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].employeeID != keys[j].employeeID {
			return keys[i].employeeID < keys[j].employeeID
		}
		return keys[i].month < keys[j].month
	})

	for _, k := range keys {
		rows := groups[k]
		employee, ok := ctx.Employees[k.employeeID]
		if !ok {
			continue
		}

		total := decimal.Zero
		for _, a := range rows {
			total = total.Add(a.Hours.OT)
		}

		monthStart, err := timeutil.ParseDate(k.month + "-01")
		if err != nil {
			continue
		}
		cap := ctx.Resolver.MonthlyOTCap(employee, monthStart.Year(), monthStart.Month())
		if total.LessThanOrEqual(cap) || total.IsZero() {
			continue
		}

		factor := cap.Div(total)
		for _, a := range rows {
			reduced := a.Hours.OT.Mul(factor)
			a.Hours.Normal = a.Hours.Normal.Add(a.Hours.OT.Sub(reduced))
			a.Hours.OT = reduced
			a.Hours.Paid = a.Hours.Normal.Add(a.Hours.OT).Add(a.Hours.RestDayPay)
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s: employee %s month %s overtime %s exceeds cap %s, redistributed",
			WarnCodeMonthlyOTCapped, k.employeeID, k.month, total.String(), cap.String()))
	}

	return warnings
}
