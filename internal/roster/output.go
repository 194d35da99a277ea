package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/amara/rosterd/internal/calculation"
	"github.com/amara/rosterd/internal/cpsat"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// assembleInput bundles everything the output assembler consumes.
type assembleInput struct {
	runID     string
	seed      int64
	statuses  []cpsat.Status
	raw       []rawAssignment
	warnings  []string
	startedAt time.Time
}

// assemble produces the schema-0.95 output document: every slot filled or
// not, an OFF_DAY row for every employee-date without an assignment, hour
// accounting applied, deterministic ordering throughout.
func (rc *runContext) assemble(in assembleInput) *model.Output {
	assignments := make([]model.Assignment, 0, len(in.raw))

	for _, r := range in.raw {
		slot := r.Slot
		status := model.StatusAssigned
		var employeeID *string
		if r.EmployeeID == "" {
			status = model.StatusUnassigned
		} else {
			id := r.EmployeeID
			employeeID = &id
		}
		start := timeutil.MinutesToDateTime(slot.Date, rc.shiftStart[slot.ShiftCode])
		end := timeutil.MinutesToDateTime(slot.Date, rc.shiftEnd[slot.ShiftCode])
		assignments = append(assignments, model.Assignment{
			AssignmentID:  "a/" + slot.ID,
			SlotID:        slot.ID,
			EmployeeID:    employeeID,
			DemandID:      slot.DemandID,
			RequirementID: slot.RequirementID,
			Date:          strfmt.Date(slot.Date),
			ShiftCode:     slot.ShiftCode,
			Status:        status,
			StartDateTime: start.Format(timeutil.DateTimeLayout),
			EndDateTime:   end.Format(timeutil.DateTimeLayout),
			Hours:         model.ZeroHours(),
		})
	}

	warnings := append([]string{}, in.warnings...)
	warnings = append(warnings, calculation.PostProcess(rc.calcContext(), assignments)...)

	assignments = append(assignments, rc.offDayRows(assignments)...)

	sort.Slice(assignments, func(i, j int) bool {
		di, dj := time.Time(assignments[i].Date), time.Time(assignments[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if assignments[i].ShiftCode != assignments[j].ShiftCode {
			return assignments[i].ShiftCode < assignments[j].ShiftCode
		}
		if assignments[i].SlotID != assignments[j].SlotID {
			return assignments[i].SlotID < assignments[j].SlotID
		}
		return assignments[i].AssignmentID < assignments[j].AssignmentID
	})

	unassigned := 0
	mismatches := 0
	for _, a := range assignments {
		switch a.Status {
		case model.StatusUnassigned:
			unassigned++
		case model.StatusAssigned:
			if !rc.matchesPattern(a) {
				mismatches++
			}
		}
	}

	return &model.Output{
		SchemaVersion: model.SchemaVersion,
		SolverRun: model.SolverRun{
			RunID:               in.runID,
			Status:              combineStatuses(in.statuses, unassigned),
			SolveWallTimeSecond: time.Since(in.startedAt).Seconds(),
			Seed:                in.seed,
		},
		Score: model.Score{
			HardViolations:  unassigned,
			SoftPenalty:     mismatches * patternMismatchPenalty,
			UnassignedSlots: unassigned,
		},
		Assignments:    assignments,
		EmployeeRoster: rc.employeeRoster(assignments),
		Warnings:       warnings,
	}
}

// calcContext projects the run context into the post-processor's view.
func (rc *runContext) calcContext() calculation.Context {
	employees := make(map[string]*model.Employee, len(rc.input.Employees))
	for i := range rc.input.Employees {
		employees[rc.input.Employees[i].ID] = &rc.input.Employees[i]
	}
	workDays := make(map[string]int, len(rc.reqByID))
	weekDays := make(map[string]int, len(rc.reqByID))
	for id, req := range rc.reqByID {
		workDays[id] = req.Pattern.WorkDays()
		weekDays[id] = req.Pattern.WorkDaysPerWeek()
	}
	return calculation.Context{
		Employees:       employees,
		ShiftDurations:  rc.shiftGross,
		ShiftStarts:     rc.shiftStart,
		PatternWorkDays: workDays,
		PatternWeekDays: weekDays,
		Resolver:        rc.resolver,
		HorizonStart:    rc.input.PlanningHorizon.Start(),
	}
}

// offDayRows synthesises an OFF_DAY row for every (employee, date) pair in
// the horizon without an assignment, regardless of rostering basis.
func (rc *runContext) offDayRows(assignments []model.Assignment) []model.Assignment {
	busy := make(map[string]bool)
	for _, a := range assignments {
		if a.Status == model.StatusAssigned && a.EmployeeID != nil {
			busy[*a.EmployeeID+"/"+timeutil.FormatDate(time.Time(a.Date))] = true
		}
	}

	var rows []model.Assignment
	for i := range rc.input.Employees {
		e := &rc.input.Employees[i]
		for _, date := range rc.input.PlanningHorizon.Dates() {
			if busy[e.ID+"/"+timeutil.FormatDate(date)] {
				continue
			}
			id := e.ID
			midnight := timeutil.MinutesToDateTime(date, 0).Format(timeutil.DateTimeLayout)
			rows = append(rows, model.Assignment{
				AssignmentID:  fmt.Sprintf("off/%s/%s", e.ID, timeutil.FormatDate(date)),
				SlotID:        "",
				EmployeeID:    &id,
				DemandID:      "",
				RequirementID: "",
				Date:          strfmt.Date(date),
				ShiftCode:     model.OffMarker,
				Status:        model.StatusOffDay,
				StartDateTime: midnight,
				EndDateTime:   midnight,
				Hours:         model.ZeroHours(),
			})
		}
	}
	return rows
}

// matchesPattern reports whether an assigned row agrees with the employee's
// rotation pattern position.
func (rc *runContext) matchesPattern(a model.Assignment) bool {
	req := rc.reqByID[a.RequirementID]
	item := rc.demandByID[a.DemandID]
	if req == nil || item == nil || a.EmployeeID == nil {
		return true
	}
	anchor := timeutil.Truncate(time.Time(item.Range.StartDate))
	code := req.Pattern.ShiftCodeFor(anchor, timeutil.Truncate(time.Time(a.Date)), rc.effectiveOffset(*a.EmployeeID))
	return code == a.ShiftCode
}

// employeeRoster builds the per-employee monthly totals and daily timeline,
// employees ordered by id.
func (rc *runContext) employeeRoster(assignments []model.Assignment) []model.EmployeeRoster {
	type dayCell struct {
		status string
		shift  string
	}
	cells := make(map[string]map[string]dayCell)
	totals := make(map[string]map[string]*model.MonthTotals)

	for _, a := range assignments {
		if a.EmployeeID == nil {
			continue
		}
		id := *a.EmployeeID
		dateKey := timeutil.FormatDate(time.Time(a.Date))
		if cells[id] == nil {
			cells[id] = make(map[string]dayCell)
		}
		if existing, ok := cells[id][dateKey]; !ok || existing.status != model.StatusAssigned {
			cells[id][dateKey] = dayCell{status: a.Status, shift: a.ShiftCode}
		}

		if a.Status != model.StatusAssigned {
			continue
		}
		mk := timeutil.MonthKey(time.Time(a.Date))
		if totals[id] == nil {
			totals[id] = make(map[string]*model.MonthTotals)
		}
		mt, ok := totals[id][mk]
		if !ok {
			zero := model.ZeroHours()
			mt = &model.MonthTotals{Month: mk,
				Gross: zero.Gross, Normal: zero.Normal, OT: zero.OT,
				RestDayPay: zero.RestDayPay, Paid: zero.Paid}
			totals[id][mk] = mt
		}
		mt.Gross = mt.Gross.Add(a.Hours.Gross)
		mt.Normal = mt.Normal.Add(a.Hours.Normal)
		mt.OT = mt.OT.Add(a.Hours.OT)
		mt.RestDayPay = mt.RestDayPay.Add(a.Hours.RestDayPay)
		mt.Paid = mt.Paid.Add(a.Hours.Paid)
		mt.WorkDays++
	}

	rosters := make([]model.EmployeeRoster, 0, len(rc.input.Employees))
	employees := make([]*model.Employee, 0, len(rc.input.Employees))
	for i := range rc.input.Employees {
		employees = append(employees, &rc.input.Employees[i])
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	for _, e := range employees {
		roster := model.EmployeeRoster{
			EmployeeID:  e.ID,
			Scheme:      e.Scheme,
			ProductType: e.ProductType,
		}

		monthKeys := make([]string, 0, len(totals[e.ID]))
		for mk := range totals[e.ID] {
			monthKeys = append(monthKeys, mk)
		}
		sort.Strings(monthKeys)
		for _, mk := range monthKeys {
			roster.MonthlyTotals = append(roster.MonthlyTotals, *totals[e.ID][mk])
		}

		for _, date := range rc.input.PlanningHorizon.Dates() {
			dateKey := timeutil.FormatDate(date)
			cell, ok := cells[e.ID][dateKey]
			if !ok || cell.status != model.StatusAssigned {
				cell = dayCell{status: model.StatusOffDay, shift: model.OffMarker}
			}
			roster.Timeline = append(roster.Timeline, model.DayStatus{
				Date:      strfmt.Date(date),
				Status:    cell.status,
				ShiftCode: cell.shift,
				Holiday:   rc.holidays.IsHoliday(date),
			})
		}
		rosters = append(rosters, roster)
	}
	return rosters
}

// combineStatuses folds per-solve backend statuses into the run status.
// Unassigned slots always mean INFEASIBLE; a timed-out backend counts as
// FEASIBLE when it produced anything at all.
func combineStatuses(statuses []cpsat.Status, unassigned int) string {
	if unassigned > 0 {
		return model.SolveStatusInfeasible
	}
	if len(statuses) == 0 {
		return model.SolveStatusOptimal
	}
	allOptimal := true
	for _, s := range statuses {
		switch s {
		case cpsat.StatusInfeasible:
			return model.SolveStatusInfeasible
		case cpsat.StatusOptimal:
		default:
			allOptimal = false
		}
	}
	if allOptimal {
		return model.SolveStatusOptimal
	}
	return model.SolveStatusFeasible
}
