package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/cpsat"
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// Objective weights. A filled slot dominates any soft penalty, so the solver
// minimises unassigned slots first and pattern mismatches second.
const (
	assignWeight           = 1000
	patternMismatchPenalty = 100
)

// ConstraintRotation is the catalog id of the rotation-adherence rule. It is
// hard in demand-based mode unless the catalog softens it.
const ConstraintRotation = "ROT"

var sixty = decimal.NewFromInt(60)

// candidate is one (slot, employee) decision variable.
type candidate struct {
	slotIdx  int
	employee *model.Employee
	v        cpsat.Var
}

// demandModel is the decision model for demand-based solving plus the
// indexes needed to extract a solution.
type demandModel struct {
	m     *cpsat.Model
	slots []Slot
	// bySlot lists each slot's candidate variables in employee order.
	bySlot [][]candidate
	// byEmployee lists each employee's candidate variables.
	byEmployee map[string][]candidate
}

// buildDemandModel creates x[slot, employee] variables for every eligible
// pair and attaches the labour-law constraint library (C1-C17). Iteration is
// id-sorted throughout so identical input builds an identical model.
func (rc *runContext) buildDemandModel(
	slots []Slot,
	employees []*model.Employee,
	adherenceRatio float64,
) *demandModel {
	dm := &demandModel{
		m:          cpsat.NewModel(),
		slots:      slots,
		bySlot:     make([][]candidate, len(slots)),
		byEmployee: make(map[string][]candidate),
	}

	sorted := make([]*model.Employee, len(employees))
	copy(sorted, employees)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for si, slot := range slots {
		req := rc.reqByID[slot.RequirementID]
		item := rc.demandByID[slot.DemandID]
		if req == nil || item == nil {
			continue
		}
		anchor := timeutil.Truncate(time.Time(item.Range.StartDate))
		ratio := adherenceRatio
		if req.StrictAdherenceRatio != nil {
			ratio = *req.StrictAdherenceRatio
		}
		strict := ratio >= 1 && rc.resolver.Enforcement(ConstraintRotation) == model.EnforcementHard

		for _, e := range sorted {
			if sel := rc.selected[req.ID]; sel != nil && !sel[e.ID] {
				continue
			}
			if !rc.baseEligible(item, req, e) || !rc.dateEligible(req, e, slot.Date) {
				continue
			}
			// C1 single-slot screen: a shift that alone exceeds the daily
			// cap can never be assigned.
			capMinutes := rc.resolver.Resolve(limits.ConstraintDailyHours, e).Mul(sixty).IntPart()
			if rc.slotGrossMinutes(slot) > capMinutes {
				continue
			}

			matches := req.Pattern.ShiftCodeFor(anchor, slot.Date, rc.effectiveOffset(e.ID)) == slot.ShiftCode
			if strict && !matches {
				continue
			}

			v := dm.m.NewBool(fmt.Sprintf("x[%s,%s]", slot.ID, e.ID))
			dm.m.SetWeight(v, assignWeight)
			if !matches {
				dm.m.AddWeight(v, -patternMismatchPenalty)
			}
			c := candidate{slotIdx: si, employee: e, v: v}
			dm.bySlot[si] = append(dm.bySlot[si], c)
			dm.byEmployee[e.ID] = append(dm.byEmployee[e.ID], c)
		}

		// One employee per slot.
		if len(dm.bySlot[si]) > 1 {
			terms := make([]cpsat.Term, len(dm.bySlot[si]))
			for i, c := range dm.bySlot[si] {
				terms[i] = cpsat.Term{Var: c.v, Coef: 1}
			}
			dm.m.AddLinearLE(fmt.Sprintf("slot/%s", slot.ID), terms, 1)
		}
	}

	employeeIDs := make([]string, 0, len(dm.byEmployee))
	for id := range dm.byEmployee {
		employeeIDs = append(employeeIDs, id)
	}
	sort.Strings(employeeIDs)

	for _, id := range employeeIDs {
		rc.attachEmployeeConstraints(dm, id)
	}

	return dm
}

// attachEmployeeConstraints binds C1-C6, C16 and C17 for one employee's
// candidate variables.
func (rc *runContext) attachEmployeeConstraints(dm *demandModel, employeeID string) {
	cands := dm.byEmployee[employeeID]
	if len(cands) == 0 {
		return
	}
	e := cands[0].employee
	apgd := e.IsApgdD10()

	horizonDates := rc.input.PlanningHorizon.Dates()

	byDate := make(map[string][]candidate)
	for _, c := range cands {
		key := timeutil.FormatDate(dm.slots[c.slotIdx].Date)
		byDate[key] = append(byDate[key], c)
	}

	// C16: shifts per day; C1: daily gross hours.
	shiftsPerDay := rc.resolver.Resolve(limits.ConstraintShiftsPerDay, e).IntPart()
	dailyCapMin := rc.resolver.Resolve(limits.ConstraintDailyHours, e).Mul(sixty).IntPart()
	dateKeys := make([]string, 0, len(byDate))
	for k := range byDate {
		dateKeys = append(dateKeys, k)
	}
	sort.Strings(dateKeys)
	for _, key := range dateKeys {
		group := byDate[key]
		countTerms := make([]cpsat.Term, len(group))
		grossTerms := make([]cpsat.Term, len(group))
		for i, c := range group {
			countTerms[i] = cpsat.Term{Var: c.v, Coef: 1}
			grossTerms[i] = cpsat.Term{Var: c.v, Coef: rc.slotGrossMinutes(dm.slots[c.slotIdx])}
		}
		dm.m.AddLinearLE(fmt.Sprintf("C16/%s/%s", employeeID, key), countTerms, shiftsPerDay)
		if len(group) > 1 {
			dm.m.AddLinearLE(fmt.Sprintf("C1/%s/%s", employeeID, key), grossTerms, dailyCapMin)
		}
	}

	rc.attachRestConstraints(dm, e, cands)

	// Rolling windows: one inequality per starting date in the horizon.
	weeklyCapMin := rc.resolver.Resolve(limits.ConstraintWeeklyNormal, e).Mul(sixty).IntPart()
	if e.SchemeLetter() == scheme.P {
		req := rc.reqByID[dm.slots[cands[0].slotIdx].RequirementID]
		weekDays := 5
		if req != nil {
			weekDays = req.Pattern.WorkDaysPerWeek()
		}
		weeklyCapMin = scheme.WeeklyNormalCap(scheme.P, weekDays).Mul(sixty).IntPart()
	}
	consecutiveLimit := int(rc.resolver.Resolve(limits.ConstraintConsecutiveDays, e).IntPart())

	for _, start := range horizonDates {
		// C2 / C6: weekly normal cap over [start, start+6]. APGD-D10 is
		// exempt; its monthly caps govern instead.
		if !apgd {
			var normalTerms []cpsat.Term
			var dayGroups [][]cpsat.Var
			for d := 0; d < 7; d++ {
				key := timeutil.FormatDate(start.AddDate(0, 0, d))
				group := byDate[key]
				if len(group) == 0 {
					continue
				}
				var g []cpsat.Var
				for _, c := range group {
					normalTerms = append(normalTerms, cpsat.Term{
						Var:  c.v,
						Coef: rc.slotNormalMinutes(dm.slots[c.slotIdx], e),
					})
					g = append(g, c.v)
				}
				dayGroups = append(dayGroups, g)
			}
			if len(normalTerms) > 0 {
				dm.m.AddLinearLE(
					fmt.Sprintf("C2/%s/%s", employeeID, timeutil.FormatDate(start)),
					normalTerms, weeklyCapMin)
			}
			// C5: at least one off day per 7-day window, i.e. at most six
			// worked days.
			if len(dayGroups) == 7 {
				dm.m.AddGroupCardinality(
					fmt.Sprintf("C5/%s/%s", employeeID, timeutil.FormatDate(start)),
					dayGroups, 6)
			}
		}

		// C3: consecutive working days within a window of limit+1 days.
		var window [][]cpsat.Var
		for d := 0; d <= consecutiveLimit; d++ {
			key := timeutil.FormatDate(start.AddDate(0, 0, d))
			if group := byDate[key]; len(group) > 0 {
				var g []cpsat.Var
				for _, c := range group {
					g = append(g, c.v)
				}
				window = append(window, g)
			}
		}
		if len(window) > consecutiveLimit {
			dm.m.AddGroupCardinality(
				fmt.Sprintf("C3/%s/%s", employeeID, timeutil.FormatDate(start)),
				window, consecutiveLimit)
		}
	}

	// C17: monthly overtime cap per calendar month.
	byMonth := make(map[string][]candidate)
	for _, c := range cands {
		byMonth[timeutil.MonthKey(dm.slots[c.slotIdx].Date)] = append(
			byMonth[timeutil.MonthKey(dm.slots[c.slotIdx].Date)], c)
	}
	monthKeys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		monthKeys = append(monthKeys, k)
	}
	sort.Strings(monthKeys)
	for _, mk := range monthKeys {
		group := byMonth[mk]
		first := dm.slots[group[0].slotIdx].Date
		capMin := rc.resolver.MonthlyOTCap(e, first.Year(), first.Month()).Mul(sixty).IntPart()
		var terms []cpsat.Term
		for _, c := range group {
			if ot := rc.slotOTMinutes(dm.slots[c.slotIdx], e); ot > 0 {
				terms = append(terms, cpsat.Term{Var: c.v, Coef: ot})
			}
		}
		if len(terms) > 0 {
			dm.m.AddLinearLE(fmt.Sprintf("C17/%s/%s", employeeID, mk), terms, capMin)
		}
	}
}

// attachRestConstraints adds C4 pairwise rest conflicts for one employee.
// Candidates are ordered by absolute start instant; enumeration of later
// partners stops as soon as the gap exceeds 24 h, every pair beyond that
// being trivially satisfied.
func (rc *runContext) attachRestConstraints(dm *demandModel, e *model.Employee, cands []candidate) {
	restMin := rc.resolver.Resolve(limits.ConstraintMinRest, e).Mul(sixty).IntPart()
	sameDayRestMin := int64(scheme.MinRestHoursSameDayP * 60)
	isPartTime := e.SchemeLetter() == scheme.P

	type instant struct {
		c        candidate
		startAbs int64 // minutes from horizon start
		endAbs   int64
		dateKey  string
	}
	horizonStart := rc.input.PlanningHorizon.Start()

	instants := make([]instant, len(cands))
	for i, c := range cands {
		slot := dm.slots[c.slotIdx]
		base := int64(timeutil.DaysBetween(horizonStart, slot.Date)) * timeutil.MinutesPerDay
		instants[i] = instant{
			c:        c,
			startAbs: base + int64(rc.shiftStart[slot.ShiftCode]),
			endAbs:   base + int64(rc.shiftEnd[slot.ShiftCode]),
			dateKey:  timeutil.FormatDate(slot.Date),
		}
	}
	sort.Slice(instants, func(i, j int) bool {
		if instants[i].startAbs != instants[j].startAbs {
			return instants[i].startAbs < instants[j].startAbs
		}
		return instants[i].c.v < instants[j].c.v
	})

	const dayMinutes = int64(timeutil.MinutesPerDay)
	for i := 0; i < len(instants); i++ {
		for j := i + 1; j < len(instants); j++ {
			gap := instants[j].startAbs - instants[i].endAbs
			if gap > dayMinutes {
				break
			}
			required := restMin
			if isPartTime && instants[i].dateKey == instants[j].dateKey {
				required = sameDayRestMin
			}
			if gap < required {
				dm.m.AddConflict(instants[i].c.v, instants[j].c.v)
			}
		}
	}
}
