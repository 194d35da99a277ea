package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/cpsat"
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// ErrCancelled is returned when a cooperative checkpoint observes the
// caller's cancellation flag. No partial output is emitted.
var ErrCancelled = errors.New("roster run cancelled")

// RunOptions carries the caller-provided hooks for one run.
type RunOptions struct {
	// Cancelled is polled at the three cooperative checkpoints: before slot
	// build, before solve, and before post-processing. Nil means never
	// cancelled.
	Cancelled func() bool
}

// defaultSeed is the backend seed when solverConfig.seed is absent.
const defaultSeed = 1

// Run executes the full pipeline: normalise, filter, preprocess, build,
// solve, post-process, assemble. Only input errors surface as Go errors;
// everything structural lands in the output document with warnings.
func Run(ctx context.Context, in *model.Input, opts RunOptions) (*model.Output, error) {
	started := time.Now()

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	resolver := limits.NewResolver(in.ConstraintList, in.MonthlyHourLimits)
	rc := newRunContext(in, resolver)

	warnings := append([]string{}, rc.holidays.Warnings()...)

	// Per-requirement employee filtering and capacity preprocessing.
	selected := make(map[string]map[string]bool)
	union := make(map[string]*model.Employee)
	type reqPlan struct {
		item    *model.DemandItem
		req     *model.Requirement
		cohort  []*model.Employee
		outcome bool
	}
	var plans []reqPlan

	for i := range in.DemandItems {
		item := &in.DemandItems[i]
		for j := range item.Requirements {
			req := &item.Requirements[j]

			var pool []*model.Employee
			for k := range in.Employees {
				e := &in.Employees[k]
				if rc.baseEligible(item, req, e) {
					pool = append(pool, e)
				}
			}

			outcome := req.RosteringBasis == model.BasisOutcomeBased
			pre := Preprocess(req, pool, preprocessOptions(rc, req, outcome))
			warnings = append(warnings, pre.Warnings...)

			sel := make(map[string]bool, len(pre.Selected))
			for _, e := range pre.Selected {
				sel[e.ID] = true
				union[e.ID] = e
				if off, ok := pre.Offsets[e.ID]; ok {
					rc.offsets[e.ID] = off
				}
			}
			selected[req.ID] = sel

			if outcome {
				if fallback, reason := outcomeFallback(req, pre.Selected, rc.offsets); fallback {
					warnings = append(warnings, fmt.Sprintf(
						"OUTCOME_FALLBACK: requirement %s falls back to demand-based: %s", req.ID, reason))
					outcome = false
				}
			}
			if outcome && len(pre.Selected) == 0 {
				outcome = false
			}

			plans = append(plans, reqPlan{item: item, req: req, cohort: pre.Selected, outcome: outcome})
		}
	}

	rc.selected = selected

	if cancelled(opts) {
		return nil, ErrCancelled
	}

	// Slot build for the demand-based share.
	var demandItems []model.DemandItem
	for _, p := range plans {
		if p.outcome {
			continue
		}
		clone := *p.item
		clone.Requirements = []model.Requirement{*p.req}
		demandItems = append(demandItems, clone)
	}
	slots := BuildSlots(demandItems, in.PlanningHorizon)

	if cancelled(opts) {
		return nil, ErrCancelled
	}

	params := solveParams(in.SolverConfig)
	var raw []rawAssignment
	statuses := []cpsat.Status{}

	if len(slots) > 0 {
		employees := make([]*model.Employee, 0, len(union))
		for _, e := range union {
			employees = append(employees, e)
		}
		sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

		ratio := 1.0
		if in.SolverConfig.StrictAdherenceRatio != nil {
			ratio = *in.SolverConfig.StrictAdherenceRatio
		}

		dm := rc.buildDemandModel(slots, employees, ratio)
		log.Info().
			Int("slots", len(slots)).
			Int("employees", len(employees)).
			Msg("solving demand-based model")
		solution := dm.m.Solve(ctx, params)
		statuses = append(statuses, solution.Status)
		raw = append(raw, extractAssignments(dm, solution)...)
	}

	for _, p := range plans {
		if !p.outcome || len(p.cohort) == 0 {
			continue
		}
		rows, ws, status := rc.solveOutcomeBased(ctx, p.item, p.req, p.cohort, params)
		raw = append(raw, rows...)
		warnings = append(warnings, ws...)
		statuses = append(statuses, status)
	}

	if cancelled(opts) {
		return nil, ErrCancelled
	}

	out := rc.assemble(assembleInput{
		runID:     runID(in, seedOf(in.SolverConfig)),
		seed:      seedOf(in.SolverConfig),
		statuses:  statuses,
		raw:       raw,
		warnings:  warnings,
		startedAt: started,
	})
	return out, nil
}

func cancelled(opts RunOptions) bool {
	return opts.Cancelled != nil && opts.Cancelled()
}

func seedOf(cfg model.SolverConfig) int64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	return defaultSeed
}

// runID derives a deterministic run identifier from the horizon and the
// seed, so identical
// input and seed reproduce identical output documents.
func runID(in *model.Input, seed int64) string {
	name := fmt.Sprintf("rosterd/%s/%s/%d",
		timeutil.FormatDate(in.PlanningHorizon.Start()),
		timeutil.FormatDate(in.PlanningHorizon.End()),
		seed)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func solveParams(cfg model.SolverConfig) cpsat.SolveParams {
	limit := cfg.TimeLimitSeconds
	if limit <= 0 {
		limit = model.DefaultTimeLimitSeconds
	}
	workers := 0
	if cfg.Workers != nil {
		workers = *cfg.Workers
	}
	return cpsat.SolveParams{
		TimeLimit: time.Duration(limit * float64(time.Second)),
		Seed:      seedOf(cfg),
		Workers:   workers,
	}
}

// preprocessOptions derives ICPMP inputs for a requirement. OT-aware mode
// defaults on for outcome-based requirements and off otherwise.
func preprocessOptions(rc *runContext, req *model.Requirement, outcome bool) PreprocessOptions {
	otAware := outcome
	if req.EnableOtAwareIcpmp != nil {
		otAware = *req.EnableOtAwareIcpmp
	}
	buffer := DefaultIcpmpBufferPercentage
	if req.IcpmpBufferPercentage != nil {
		buffer = *req.IcpmpBufferPercentage
	}

	avg := decimal.Zero
	codes := coverageCodes(req)
	for _, code := range codes {
		avg = avg.Add(rc.shiftGross[code])
	}
	if len(codes) > 0 {
		avg = avg.Div(decimal.NewFromInt(int64(len(codes))))
	}

	start := rc.input.PlanningHorizon.Start()
	monthLength := timeutil.DaysInMonth(start.Year(), start.Month())

	probe := &model.Employee{Scheme: req.Scheme, ProductType: firstOrEmpty(req.ProductTypes)}
	if req.Scheme == "" {
		probe.Scheme = "A"
	}

	return PreprocessOptions{
		MonthLength:      monthLength,
		OTAware:          otAware,
		BufferPercentage: buffer,
		AvgShiftHours:    avg,
		WeeklyNormalCap:  rc.resolver.Resolve(limits.ConstraintWeeklyNormal, probe),
		MonthlyOTCap:     rc.resolver.MonthlyOTCap(probe, start.Year(), start.Month()),
	}
}

func firstOrEmpty(list []string) string {
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

// extractAssignments reads the solved variables back into raw assignments,
// one per slot, empty employee id when unfilled.
func extractAssignments(dm *demandModel, solution cpsat.Solution) []rawAssignment {
	out := make([]rawAssignment, 0, len(dm.slots))
	for si, slot := range dm.slots {
		assigned := ""
		for _, c := range dm.bySlot[si] {
			if solution.Value(c.v) {
				assigned = c.employee.ID
				break
			}
		}
		out = append(out, rawAssignment{Slot: slot, EmployeeID: assigned})
	}
	return out
}
