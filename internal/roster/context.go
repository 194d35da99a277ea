package roster

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/calculation"
	"github.com/amara/rosterd/internal/holiday"
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// runContext holds the frozen lookups shared by one solve. It is owned by
// the orchestrator frame and never outlives the run.
type runContext struct {
	input    *model.Input
	resolver *limits.Resolver

	shiftByCode map[string]model.ShiftDef
	// shiftStart and shiftEnd are minutes from the assignment date's
	// midnight; end is cross-midnight normalised and may exceed 1440.
	shiftStart map[string]int
	shiftEnd   map[string]int
	shiftGross map[string]decimal.Decimal

	reqByID    map[string]*model.Requirement
	demandByID map[string]*model.DemandItem

	// offsets is the effective rotation offset per employee: the ICPMP tag
	// when one was assigned, the employee's own offset otherwise.
	offsets map[string]int

	// overrides indexes C15 approvals: employee id -> date -> requirement
	// ids ("" approves all requirements).
	overrides map[string]map[string][]string

	// selected records the ICPMP pick per requirement; a nil entry leaves
	// the requirement open to every eligible employee.
	selected map[string]map[string]bool

	holidays *holiday.Calendar
}

func newRunContext(in *model.Input, resolver *limits.Resolver) *runContext {
	rc := &runContext{
		input:       in,
		resolver:    resolver,
		shiftByCode: make(map[string]model.ShiftDef, len(in.Shifts)),
		shiftStart:  make(map[string]int, len(in.Shifts)),
		shiftEnd:    make(map[string]int, len(in.Shifts)),
		shiftGross:  make(map[string]decimal.Decimal, len(in.Shifts)),
		reqByID:     make(map[string]*model.Requirement),
		demandByID:  make(map[string]*model.DemandItem),
		offsets:     make(map[string]int, len(in.Employees)),
		overrides:   make(map[string]map[string][]string),
		holidays: holiday.NewCalendar(in.HolidayDates(),
			in.PlanningHorizon.Start(), in.PlanningHorizon.End()),
	}

	for i := range in.Shifts {
		s := in.Shifts[i]
		start, end, err := s.Minutes()
		if err != nil {
			continue // validation already rejected malformed shifts
		}
		rc.shiftByCode[s.Code] = s
		rc.shiftStart[s.Code] = start
		rc.shiftEnd[s.Code] = start + timeutil.ShiftDurationMinutes(start, end)
		rc.shiftGross[s.Code] = calculation.HoursFromMinutes(timeutil.ShiftDurationMinutes(start, end))
	}

	for i := range in.DemandItems {
		item := &in.DemandItems[i]
		rc.demandByID[item.ID] = item
		for j := range item.Requirements {
			rc.reqByID[item.Requirements[j].ID] = &item.Requirements[j]
		}
	}

	for i := range in.Employees {
		e := &in.Employees[i]
		rc.offsets[e.ID] = e.RotationOffset
	}

	for _, a := range in.OverrideApprovals {
		d := timeutil.FormatDate(time.Time(a.Date))
		if rc.overrides[a.EmployeeID] == nil {
			rc.overrides[a.EmployeeID] = make(map[string][]string)
		}
		rc.overrides[a.EmployeeID][d] = append(rc.overrides[a.EmployeeID][d], a.RequirementID)
	}

	return rc
}

// effectiveOffset returns the rotation offset in force for an employee.
func (rc *runContext) effectiveOffset(employeeID string) int {
	return rc.offsets[employeeID]
}

// slotNormalMinutes estimates the normal-hour minutes a slot contributes for
// an employee, the coefficient the weekly and monthly linear constraints use.
func (rc *runContext) slotNormalMinutes(s Slot, e *model.Employee) int64 {
	req := rc.reqByID[s.RequirementID]
	gross := rc.shiftGross[s.ShiftCode]
	net := gross.Sub(calculation.LunchDeduction(gross))
	normal := net
	if req != nil {
		cap := calculation.PerDayNormalCap(req.Pattern.WorkDays(),
			rc.resolver.Resolve(limits.ConstraintDailyHours, e))
		if normal.GreaterThan(cap) {
			normal = cap
		}
	}
	return normal.Mul(decimal.NewFromInt(60)).Round(0).IntPart()
}

// slotOTMinutes estimates the overtime minutes a slot contributes.
func (rc *runContext) slotOTMinutes(s Slot, e *model.Employee) int64 {
	gross := rc.shiftGross[s.ShiftCode]
	net := gross.Sub(calculation.LunchDeduction(gross))
	return net.Mul(decimal.NewFromInt(60)).Round(0).IntPart() - rc.slotNormalMinutes(s, e)
}

// slotGrossMinutes returns a slot's gross minutes.
func (rc *runContext) slotGrossMinutes(s Slot) int64 {
	return int64(rc.shiftEnd[s.ShiftCode] - rc.shiftStart[s.ShiftCode])
}
