package roster

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/calculation"
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// Violation names the constraint an assignment breaks, with a payload for
// the audit trail.
type Violation struct {
	ConstraintID string                 `json:"constraintId"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// CheckDailyCap verifies a shift fits an employee's daily gross-hour cap
// (C1). The payload reports the net (post-lunch) hours against the cap.
func CheckDailyCap(e *model.Employee, shift model.ShiftDef, resolver *limits.Resolver) *Violation {
	minutes, err := shift.DurationMinutes()
	if err != nil {
		return &Violation{ConstraintID: limits.ConstraintDailyHours,
			Payload: map[string]interface{}{"error": err.Error()}}
	}
	gross := calculation.HoursFromMinutes(minutes)
	cap := resolver.Resolve(limits.ConstraintDailyHours, e)
	if gross.GreaterThan(cap) {
		net := gross.Sub(calculation.LunchDeduction(gross))
		return &Violation{
			ConstraintID: limits.ConstraintDailyHours,
			Payload: map[string]interface{}{
				"shiftHours": net.InexactFloat64(),
				"dailyCap":   cap.InexactFloat64(),
			},
		}
	}
	return nil
}

// baseEligible applies the date-independent requirement filters: rank and
// product match (C11), scheme match, gender filter (C9), team whitelist
// (C12), and organisational unit.
func (rc *runContext) baseEligible(item *model.DemandItem, req *model.Requirement, e *model.Employee) bool {
	if item.OuID != "" && e.OuID != "" && item.OuID != e.OuID {
		return false
	}
	if req.Scheme != "" && e.Scheme != req.Scheme {
		return false
	}
	if len(req.Ranks) > 0 && !containsString(req.Ranks, e.Rank) {
		return false
	}
	if len(req.ProductTypes) > 0 && !containsString(req.ProductTypes, e.ProductType) {
		return false
	}
	switch req.Gender {
	case model.GenderMale:
		if e.Gender != "M" {
			return false
		}
	case model.GenderFemale:
		if e.Gender != "F" {
			return false
		}
	}
	if len(req.TeamWhitelist) > 0 && !containsString(req.TeamWhitelist, e.ID) {
		return false
	}
	return true
}

// dateEligible applies the per-date filters: leave, and qualification
// validity (C7-C8) unless an override approval waives it (C15).
func (rc *runContext) dateEligible(req *model.Requirement, e *model.Employee, date time.Time) bool {
	if e.OnLeave(date) {
		return false
	}
	if len(req.RequiredQualifications) == 0 {
		return true
	}
	if rc.overrideApproved(e.ID, req.ID, date) {
		return true
	}
	for _, q := range req.RequiredQualifications {
		if !e.HasValidQualification(q, date) {
			return false
		}
	}
	return true
}

func (rc *runContext) overrideApproved(employeeID, requirementID string, date time.Time) bool {
	approvals, ok := rc.overrides[employeeID]
	if !ok {
		return false
	}
	for _, a := range approvals[timeutil.FormatDate(date)] {
		if a == "" || a == requirementID {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// replicaAssignment is one candidate row of a replicated template.
type replicaAssignment struct {
	Date      time.Time
	ShiftCode string
	SlotID    string
}

// replicaDay is the accounting snapshot of one accepted replica row,
// threaded through the rolling-window checks.
type replicaDay struct {
	date      time.Time
	startMin  int
	endMinute int // absolute minutes from date midnight, may exceed 1440
	normal    decimal.Decimal
	ot        decimal.Decimal
	monthKey  string
	weekOfHzn int
}

// validateReplica re-checks a replicated calendar against the employee's
// actual situation: daily cap (C1), weekly normal (C2), consecutive days
// (C3), inter-shift rest (C4), off-days (C5), monthly OT (C17), leave and
// qualification validity. Failing rows are reported individually; the rest
// of the replica stands.
func (rc *runContext) validateReplica(
	req *model.Requirement,
	e *model.Employee,
	rows []replicaAssignment,
) (valid []replicaAssignment, rejected map[string]Violation) {
	rejected = make(map[string]Violation)

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rc.shiftStart[rows[i].ShiftCode] < rc.shiftStart[rows[j].ShiftCode]
	})

	weeklyCap := rc.resolver.Resolve(limits.ConstraintWeeklyNormal, e)
	restHours := rc.resolver.Resolve(limits.ConstraintMinRest, e)
	consecutiveLimit := int(rc.resolver.Resolve(limits.ConstraintConsecutiveDays, e).IntPart())
	apgd := e.IsApgdD10()
	workDays := req.Pattern.WorkDays()

	var kept []replicaDay

	for _, row := range rows {
		shift, ok := rc.shiftByCode[row.ShiftCode]
		if !ok {
			rejected[row.SlotID] = Violation{ConstraintID: "C7",
				Payload: map[string]interface{}{"shiftCode": row.ShiftCode}}
			continue
		}

		if e.OnLeave(row.Date) {
			rejected[row.SlotID] = Violation{ConstraintID: "AVAILABILITY",
				Payload: map[string]interface{}{"date": timeutil.FormatDate(row.Date)}}
			continue
		}
		if !rc.dateEligible(req, e, row.Date) {
			rejected[row.SlotID] = Violation{ConstraintID: "C7",
				Payload: map[string]interface{}{"date": timeutil.FormatDate(row.Date)}}
			continue
		}
		if v := CheckDailyCap(e, shift, rc.resolver); v != nil {
			rejected[row.SlotID] = *v
			continue
		}

		startMin, endMin, _ := shift.Minutes()
		endMin = startMin + timeutil.ShiftDurationMinutes(startMin, endMin)
		gross := calculation.HoursFromMinutes(endMin - startMin)
		net := gross.Sub(calculation.LunchDeduction(gross))
		normal := net
		if cap := calculation.PerDayNormalCap(workDays, scheme.DailyGrossCap(e.SchemeLetter())); normal.GreaterThan(cap) {
			normal = cap
		}

		cand := replicaDay{
			date:      row.Date,
			startMin:  startMin,
			endMinute: endMin,
			normal:    normal,
			ot:        net.Sub(normal),
			monthKey:  timeutil.MonthKey(row.Date),
			weekOfHzn: timeutil.DaysBetween(rc.input.PlanningHorizon.Start(), row.Date) / 7,
		}

		if v := rc.checkReplicaWindows(e, kept, cand, weeklyCap, restHours, consecutiveLimit, apgd); v != nil {
			rejected[row.SlotID] = *v
			continue
		}

		kept = append(kept, cand)
		valid = append(valid, row)
	}
	return valid, rejected
}

// checkReplicaWindows applies the rolling-window rules to one candidate row
// given the rows already accepted, in chronological order.
func (rc *runContext) checkReplicaWindows(
	e *model.Employee,
	kept []replicaDay,
	cand replicaDay,
	weeklyCap, restHours decimal.Decimal,
	consecutiveLimit int,
	apgd bool,
) *Violation {
	// C4: rest between the previous accepted shift end and this start. Two
	// same-day shifts of a part-timer need one hour instead.
	if len(kept) > 0 {
		prev := kept[len(kept)-1]
		gapDays := timeutil.DaysBetween(prev.date, cand.date)
		if gapDays <= 1 {
			required := restHours
			if gapDays == 0 && e.SchemeLetter() == scheme.P {
				required = decimal.NewFromInt(scheme.MinRestHoursSameDayP)
			}
			prevEndAbs := prev.endMinute - gapDays*timeutil.MinutesPerDay
			gapMinutes := cand.startMin - prevEndAbs
			if gapMinutes >= 0 &&
				decimal.NewFromInt(int64(gapMinutes)).LessThan(required.Mul(decimal.NewFromInt(60))) {
				return &Violation{ConstraintID: limits.ConstraintMinRest,
					Payload: map[string]interface{}{
						"restMinutes":   gapMinutes,
						"requiredHours": required.InexactFloat64(),
					}}
			}
		}
	}

	// C3: consecutive working days including the candidate.
	run := 1
	for i := len(kept) - 1; i >= 0; i-- {
		expect := cand.date.AddDate(0, 0, -run)
		if kept[i].date.Equal(expect) {
			run++
			continue
		}
		if kept[i].date.Before(expect) {
			break
		}
	}
	if run > consecutiveLimit {
		return &Violation{ConstraintID: limits.ConstraintConsecutiveDays,
			Payload: map[string]interface{}{"consecutiveDays": run, "limit": consecutiveLimit}}
	}

	if !apgd {
		// C2: weekly normal cap over the 7-day window ending at the candidate.
		weekNormal := cand.normal
		for _, k := range kept {
			if d := timeutil.DaysBetween(k.date, cand.date); d >= 0 && d < 7 {
				weekNormal = weekNormal.Add(k.normal)
			}
		}
		if weekNormal.GreaterThan(weeklyCap) {
			return &Violation{ConstraintID: limits.ConstraintWeeklyNormal,
				Payload: map[string]interface{}{
					"weeklyNormal": weekNormal.InexactFloat64(),
					"cap":          weeklyCap.InexactFloat64(),
				}}
		}

		// C5: at least one off day per 7-day window.
		worked := 1
		for _, k := range kept {
			if d := timeutil.DaysBetween(k.date, cand.date); d > 0 && d < 7 {
				worked++
			}
		}
		if worked > 6 {
			return &Violation{ConstraintID: limits.ConstraintOffDaysPerWeek,
				Payload: map[string]interface{}{"workedInWindow": worked}}
		}
	}

	// C17: monthly OT estimate.
	otCap := rc.resolver.MonthlyOTCap(e, cand.date.Year(), cand.date.Month())
	monthOT := cand.ot
	for _, k := range kept {
		if k.monthKey == cand.monthKey {
			monthOT = monthOT.Add(k.ot)
		}
	}
	if monthOT.GreaterThan(otCap) {
		return &Violation{ConstraintID: limits.ConstraintMonthlyOT,
			Payload: map[string]interface{}{
				"monthlyOT": monthOT.InexactFloat64(),
				"cap":       otCap.InexactFloat64(),
			}}
	}

	return nil
}
