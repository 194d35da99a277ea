package roster

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/amara/rosterd/internal/model"
)

// DefaultIcpmpBufferPercentage applies when a requirement does not set its
// own buffer.
const DefaultIcpmpBufferPercentage = 20.0

// PreprocessOptions parameterises one capacity-preprocessor invocation.
type PreprocessOptions struct {
	MonthLength      int
	OTAware          bool
	BufferPercentage float64
	// AvgShiftHours is the mean gross duration of the requirement's shifts.
	AvgShiftHours decimal.Decimal
	// WeeklyNormalCap and MonthlyOTCap bound each employee's monthly capacity
	// in OT-aware mode.
	WeeklyNormalCap decimal.Decimal
	MonthlyOTCap    decimal.Decimal
}

// PreprocessResult is the trimmed pool with per-employee offset tags.
type PreprocessResult struct {
	Selected []*model.Employee
	// Offsets tags each selected employee with the rotation offset the
	// coverage distribution assigned, keyed by employee id.
	Offsets  map[string]int
	Required int
	Warnings []string
}

// Preprocess computes how many employees a requirement needs to cover its
// work pattern under hour caps, selects that many from the pool, and spreads
// them cyclically across rotation offsets. It never blocks progression: pool
// exhaustion caps the count with a warning, and an internal panic degrades to
// the unfiltered pool.
func Preprocess(req *model.Requirement, pool []*model.Employee, opts PreprocessOptions) (result PreprocessResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("requirement", req.ID).
				Interface("panic", r).
				Msg("capacity preprocessor failed, continuing with unfiltered pool")
			result = PreprocessResult{
				Selected: pool,
				Offsets:  map[string]int{},
				Required: len(pool),
				Warnings: []string{fmt.Sprintf(
					"ICPMP_FAILED: requirement %s preprocessor error, pool passed through unfiltered", req.ID)},
			}
		}
	}()

	patternLen := req.Pattern.Len()
	workDays := req.Pattern.WorkDays()
	headcount := req.HeadcountPerShift * len(coverageCodes(req))

	var required int
	var warnings []string

	if opts.OTAware {
		required = otAwareOptimum(headcount, opts)
	} else {
		// Combinatorial minimum: ceil(H * L / w), then the buffer on top.
		raw := ceilDiv(headcount*patternLen, workDays)
		buffer := opts.BufferPercentage
		required = int(decimal.NewFromInt(int64(raw)).
			Mul(decimal.NewFromFloat(1 + buffer/100)).
			Ceil().IntPart())
	}

	if required > len(pool) {
		warnings = append(warnings, fmt.Sprintf(
			"ICPMP_POOL_EXHAUSTED: requirement %s needs %d employees, pool has %d",
			req.ID, required, len(pool)))
		log.Warn().
			Str("requirement", req.ID).
			Int("required", required).
			Int("pool", len(pool)).
			Msg("capacity exceeds available pool, capping")
		required = len(pool)
	}

	sorted := make([]*model.Employee, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	selected := sorted[:required]
	offsets := make(map[string]int, len(selected))
	for i, e := range selected {
		if patternLen > 0 {
			offsets[e.ID] = i % patternLen
		} else {
			offsets[e.ID] = 0
		}
	}

	return PreprocessResult{
		Selected: selected,
		Offsets:  offsets,
		Required: required,
		Warnings: warnings,
	}
}

// otAwareOptimum computes the monthly-hour-aware minimum. Each employee's
// monthly capacity is four weeks of normal hours plus the overtime cap, less
// an hour of lunch per scheduled day; required coverage is headcount x month
// x average shift length. The buffer is already folded into this arithmetic,
// so no multiplier is applied on top.
func otAwareOptimum(headcount int, opts PreprocessOptions) int {
	month := decimal.NewFromInt(int64(opts.MonthLength))
	requiredHours := decimal.NewFromInt(int64(headcount)).
		Mul(month).
		Mul(opts.AvgShiftHours)

	lunch := decimal.Zero
	if opts.AvgShiftHours.GreaterThanOrEqual(decimal.NewFromInt(8)) {
		lunch = month
	}
	capacity := opts.WeeklyNormalCap.
		Mul(decimal.NewFromInt(4)).
		Add(opts.MonthlyOTCap).
		Sub(lunch)
	if capacity.LessThanOrEqual(decimal.Zero) {
		capacity = decimal.NewFromInt(1)
	}

	return int(requiredHours.Div(capacity).Ceil().IntPart())
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
