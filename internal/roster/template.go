package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amara/rosterd/internal/cpsat"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// rawAssignment is the solver-level outcome for one slot before hour
// accounting: an employee id, or empty when the slot stays unassigned.
type rawAssignment struct {
	Slot       Slot
	EmployeeID string
}

// maxOutcomeCohort bounds the cohort size the template path accepts before
// auto-switching to demand-based solving.
const maxOutcomeCohort = 50

// outcomeFallback decides whether a cohort should switch to demand-based
// solving. Date-shifted replication is only correct when the cohort's
// calendars are homogeneous: more distinct offsets than pattern positions
// always disqualify, and small cohorts with divergent individual availability
// switch too because the exact solve is still affordable there. Large
// homogeneous-enough cohorts stay on the template path, where per-employee
// validation catches the residual divergence.
func outcomeFallback(req *model.Requirement, cohort []*model.Employee, offsets map[string]int) (bool, string) {
	distinct := make(map[int]struct{})
	divergent := false
	for _, e := range cohort {
		distinct[offsets[e.ID]] = struct{}{}
		if len(e.Leaves) > 0 {
			divergent = true
		}
	}
	if req.Pattern.Len() > 0 && len(distinct) > req.Pattern.Len() {
		return true, fmt.Sprintf("%d distinct offsets exceed pattern length %d",
			len(distinct), req.Pattern.Len())
	}
	if divergent && len(cohort) <= maxOutcomeCohort {
		return true, fmt.Sprintf("cohort of %d has divergent individual availability", len(cohort))
	}
	return false, ""
}

// solveOutcomeBased runs the template path for one requirement: solve for a
// single representative employee, replicate the result across rotation
// offsets, and validate each replica against the employee's actual calendar.
// Individually failing rows become UNASSIGNED without dropping the replica.
func (rc *runContext) solveOutcomeBased(
	ctx context.Context,
	item *model.DemandItem,
	req *model.Requirement,
	cohort []*model.Employee,
	params cpsat.SolveParams,
) ([]rawAssignment, []string, cpsat.Status) {
	var warnings []string

	template := cohort[0]
	anchor := timeutil.Truncate(time.Time(item.Range.StartDate))

	// Build slots as if only the template employee existed: one slot per
	// pattern work date at the template's offset.
	var slots []Slot
	start := maxDate(timeutil.Truncate(time.Time(item.Range.StartDate)), rc.input.PlanningHorizon.Start())
	end := minDate(timeutil.Truncate(time.Time(item.Range.EndDate)), rc.input.PlanningHorizon.End())
	for _, date := range timeutil.DatesBetween(start, end) {
		code := req.Pattern.ShiftCodeFor(anchor, date, rc.effectiveOffset(template.ID))
		if code == model.OffMarker {
			continue
		}
		slots = append(slots, Slot{
			ID:            slotID(item.ID, req.ID, code, date, 0),
			DemandID:      item.ID,
			RequirementID: req.ID,
			Date:          date,
			ShiftCode:     code,
			Position:      0,
		})
	}

	dm := rc.buildDemandModel(slots, []*model.Employee{template}, 1.0)
	solution := dm.m.Solve(ctx, params)

	var templateRows []replicaAssignment
	for si, slot := range slots {
		for _, c := range dm.bySlot[si] {
			if solution.Value(c.v) {
				templateRows = append(templateRows, replicaAssignment{
					Date:      slot.Date,
					ShiftCode: slot.ShiftCode,
					SlotID:    slot.ID,
				})
			}
		}
	}

	log.Debug().
		Str("requirement", req.ID).
		Str("template", template.ID).
		Int("templateAssignments", len(templateRows)).
		Msg("template solved, replicating across cohort")

	var out []rawAssignment
	for pos, e := range cohort {
		delta := rc.effectiveOffset(e.ID) - rc.effectiveOffset(template.ID)

		// Every template assignment date shifts by the offset delta; the
		// shift code carries over unchanged.
		var rows []replicaAssignment
		for _, tr := range templateRows {
			date := tr.Date.AddDate(0, 0, delta)
			if date.Before(start) || date.After(end) {
				continue
			}
			rows = append(rows, replicaAssignment{
				Date:      date,
				ShiftCode: tr.ShiftCode,
				SlotID:    slotID(item.ID, req.ID, tr.ShiftCode, date, pos),
			})
		}

		valid, rejected := rc.validateReplica(req, e, rows)
		for _, row := range valid {
			out = append(out, rawAssignment{
				Slot: Slot{
					ID:            row.SlotID,
					DemandID:      item.ID,
					RequirementID: req.ID,
					Date:          row.Date,
					ShiftCode:     row.ShiftCode,
					Position:      pos,
				},
				EmployeeID: e.ID,
			})
		}
		rejectedIDs := make([]string, 0, len(rejected))
		for id := range rejected {
			rejectedIDs = append(rejectedIDs, id)
		}
		sort.Strings(rejectedIDs)
		for _, id := range rejectedIDs {
			v := rejected[id]
			warnings = append(warnings, fmt.Sprintf(
				"REPLICA_REJECTED: employee %s slot %s violates %s", e.ID, id, v.ConstraintID))
			row := findRow(rows, id)
			out = append(out, rawAssignment{
				Slot: Slot{
					ID:            id,
					DemandID:      item.ID,
					RequirementID: req.ID,
					Date:          row.Date,
					ShiftCode:     row.ShiftCode,
					Position:      pos,
				},
			})
		}
	}

	return out, warnings, solution.Status
}

func findRow(rows []replicaAssignment, slotID string) replicaAssignment {
	for _, r := range rows {
		if r.SlotID == slotID {
			return r
		}
	}
	return replicaAssignment{}
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
