package roster_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/roster"
)

func alternatingInput() *model.Input {
	return &model.Input{
		SchemaVersion: model.SchemaVersion,
		PlanningHorizon: model.Horizon{
			StartDate: strfmt.Date(date(2026, 3, 1)),
			EndDate:   strfmt.Date(date(2026, 3, 4)),
		},
		Shifts: []model.ShiftDef{
			{Code: "D", StartTime: "08:00", EndTime: "16:00"},
		},
		Employees: []model.Employee{
			{ID: "E01", Scheme: "A", ProductType: "SO", Rank: "SO", OuID: "OU1"},
			{ID: "E02", Scheme: "A", ProductType: "SO", Rank: "SO", OuID: "OU1"},
		},
		DemandItems: []model.DemandItem{
			demandItem("DM1", date(2026, 3, 1), date(2026, 3, 4), model.Requirement{
				ID:                "R1",
				ShiftCodes:        []string{"D"},
				Pattern:           model.WorkPattern{"D", "O"},
				HeadcountPerShift: 1,
				Scheme:            "A",
			}),
		},
		SolverConfig: model.SolverConfig{TimeLimitSeconds: 10},
	}
}

func TestRunAlternatingCoverage(t *testing.T) {
	out, err := roster.Run(context.Background(), alternatingInput(), roster.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.SchemaVersion, out.SchemaVersion)
	assert.Equal(t, 0, out.Score.UnassignedSlots)
	assert.Equal(t, model.SolveStatusOptimal, out.SolverRun.Status)

	assigned, offDays := 0, 0
	rowsPerEmployee := map[string]int{}
	for _, a := range out.Assignments {
		switch a.Status {
		case model.StatusAssigned:
			assigned++
		case model.StatusOffDay:
			offDays++
			assert.Equal(t, model.OffMarker, a.ShiftCode)
		}
		if a.EmployeeID != nil {
			rowsPerEmployee[*a.EmployeeID]++
		}
	}

	// Four slots filled, and each employee has one row per horizon date.
	assert.Equal(t, 4, assigned)
	assert.Equal(t, 4, offDays)
	assert.Equal(t, 4, rowsPerEmployee["E01"])
	assert.Equal(t, 4, rowsPerEmployee["E02"])

	// 8 h shift: 1 h lunch, 7 h normal, no overtime.
	for _, a := range out.Assignments {
		if a.Status != model.StatusAssigned {
			continue
		}
		assert.True(t, a.Hours.Gross.Equal(dec("8")))
		assert.True(t, a.Hours.Lunch.Equal(dec("1")))
		assert.True(t, a.Hours.Normal.Equal(dec("7")))
		assert.True(t, a.Hours.OT.IsZero())
		assert.True(t, a.Hours.Gross.Equal(a.Hours.Lunch.Add(a.Hours.Normal).Add(a.Hours.OT)))
		assert.True(t, a.Hours.Paid.Equal(a.Hours.Normal.Add(a.Hours.OT).Add(a.Hours.RestDayPay)))
	}

	require.Len(t, out.EmployeeRoster, 2)
	assert.Equal(t, "E01", out.EmployeeRoster[0].EmployeeID)
	assert.Len(t, out.EmployeeRoster[0].Timeline, 4)
}

func TestRunEmptyPool(t *testing.T) {
	in := alternatingInput()
	in.Employees = nil

	out, err := roster.Run(context.Background(), in, roster.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.SolveStatusInfeasible, out.SolverRun.Status)
	assert.Equal(t, 4, out.Score.UnassignedSlots)
	for _, a := range out.Assignments {
		assert.Equal(t, model.StatusUnassigned, a.Status)
		assert.Nil(t, a.EmployeeID)
	}
	assert.NotEmpty(t, out.Warnings)
}

func TestRunDeterministic(t *testing.T) {
	seed := int64(7)
	build := func() *model.Input {
		in := alternatingInput()
		in.SolverConfig.Seed = &seed
		return in
	}

	first, err := roster.Run(context.Background(), build(), roster.RunOptions{})
	require.NoError(t, err)
	second, err := roster.Run(context.Background(), build(), roster.RunOptions{})
	require.NoError(t, err)

	// Everything except the wall-time measurement is reproducible.
	second.SolverRun.SolveWallTimeSecond = first.SolverRun.SolveWallTimeSecond
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunCancelled(t *testing.T) {
	out, err := roster.Run(context.Background(), alternatingInput(), roster.RunOptions{
		Cancelled: func() bool { return true },
	})
	assert.ErrorIs(t, err, roster.ErrCancelled)
	assert.Nil(t, out)
}

func TestRunRejectsBadInput(t *testing.T) {
	in := alternatingInput()
	in.SchemaVersion = "0.90"

	out, err := roster.Run(context.Background(), in, roster.RunOptions{})
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestRunPatternInfeasibility(t *testing.T) {
	// Six candidates, pattern [D,D,N,N,O,O], one D and one N per day over 30
	// days. The capacity preprocessor selects four employees tagged with
	// offsets 0-3, which leaves the D uncovered on every sixth day and the N
	// on another: ten unassigned slots with a six-day periodicity.
	in := &model.Input{
		SchemaVersion: model.SchemaVersion,
		PlanningHorizon: model.Horizon{
			StartDate: strfmt.Date(date(2026, 3, 1)),
			EndDate:   strfmt.Date(date(2026, 3, 30)),
		},
		Shifts: []model.ShiftDef{
			{Code: "D", StartTime: "08:00", EndTime: "16:00"},
			{Code: "N", StartTime: "22:00", EndTime: "06:00"},
		},
		DemandItems: []model.DemandItem{
			demandItem("DM1", date(2026, 3, 1), date(2026, 3, 30), model.Requirement{
				ID:                "R1",
				ShiftCodes:        []string{"D", "N"},
				Pattern:           model.WorkPattern{"D", "D", "N", "N", "O", "O"},
				HeadcountPerShift: 1,
				Scheme:            "A",
			}),
		},
		SolverConfig: model.SolverConfig{TimeLimitSeconds: 30},
	}
	for i := 0; i < 6; i++ {
		in.Employees = append(in.Employees, model.Employee{
			ID:     fmt.Sprintf("E%02d", i+1),
			Scheme: "A", ProductType: "SO", Rank: "SO", OuID: "OU1",
			RotationOffset: i,
		})
	}

	out, err := roster.Run(context.Background(), in, roster.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.SolveStatusInfeasible, out.SolverRun.Status)
	assert.Equal(t, 10, out.Score.UnassignedSlots)

	unassignedByShift := map[string]int{}
	for _, a := range out.Assignments {
		if a.Status == model.StatusUnassigned {
			unassignedByShift[a.ShiftCode]++
		}
	}
	assert.Equal(t, 5, unassignedByShift["D"])
	assert.Equal(t, 5, unassignedByShift["N"])
}

func partTimeInput(secondShiftStart, secondShiftEnd string) *model.Input {
	ratio := 0.5
	return &model.Input{
		SchemaVersion: model.SchemaVersion,
		PlanningHorizon: model.Horizon{
			StartDate: strfmt.Date(date(2026, 3, 2)),
			EndDate:   strfmt.Date(date(2026, 3, 2)),
		},
		Shifts: []model.ShiftDef{
			{Code: "A", StartTime: "09:00", EndTime: "13:00"},
			{Code: "B", StartTime: secondShiftStart, EndTime: secondShiftEnd},
		},
		Employees: []model.Employee{
			{ID: "P1", Scheme: "P", ProductType: "SO", Rank: "SO", OuID: "OU1"},
		},
		DemandItems: []model.DemandItem{
			demandItem("DM1", date(2026, 3, 2), date(2026, 3, 2), model.Requirement{
				ID:                   "R1",
				ShiftCodes:           []string{"A", "B"},
				Pattern:              model.WorkPattern{"A", "B"},
				HeadcountPerShift:    1,
				Scheme:               "P",
				StrictAdherenceRatio: &ratio,
			}),
		},
		SolverConfig: model.SolverConfig{TimeLimitSeconds: 10},
	}
}

func TestRunPartTimerTwoShiftsSameDay(t *testing.T) {
	// A 09-13 then B 14-18: a one-hour gap satisfies the same-day rest rule,
	// both slots go to the single part-timer.
	out, err := roster.Run(context.Background(), partTimeInput("14:00", "18:00"), roster.RunOptions{})
	require.NoError(t, err)

	assigned := 0
	for _, a := range out.Assignments {
		if a.Status == model.StatusAssigned {
			assigned++
			assert.Equal(t, "P1", *a.EmployeeID)
		}
	}
	assert.Equal(t, 2, assigned)
	assert.Equal(t, 0, out.Score.UnassignedSlots)
}

func TestRunPartTimerRestViolationLeavesSlotOpen(t *testing.T) {
	// B starting 13:30 leaves only thirty minutes after A: one slot must
	// stay unassigned.
	out, err := roster.Run(context.Background(), partTimeInput("13:30", "17:30"), roster.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Score.UnassignedSlots)
	assert.Equal(t, model.SolveStatusInfeasible, out.SolverRun.Status)
}
