package calculation_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara/rosterd/internal/calculation"
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
)

func strPtr(s string) *string { return &s }

func testContext(employees ...*model.Employee) calculation.Context {
	byID := make(map[string]*model.Employee)
	for _, e := range employees {
		byID[e.ID] = e
	}
	return calculation.Context{
		Employees: byID,
		ShiftDurations: map[string]decimal.Decimal{
			"D": dec("12"),
			"N": dec("12"),
			"M": dec("4"),
		},
		ShiftStarts:     map[string]int{"D": 480, "N": 1200, "M": 540},
		PatternWorkDays: map[string]int{"R1": 5},
		PatternWeekDays: map[string]int{"R1": 5},
		Resolver:        limits.NewResolver(nil, nil),
		HorizonStart:    date(2026, 3, 1),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assigned(employeeID string, d time.Time, shift string) model.Assignment {
	return model.Assignment{
		AssignmentID:  fmt.Sprintf("%s-%s-%s", employeeID, d.Format("20060102"), shift),
		SlotID:        fmt.Sprintf("slot-%s-%s", d.Format("20060102"), shift),
		EmployeeID:    strPtr(employeeID),
		DemandID:      "DM1",
		RequirementID: "R1",
		Date:          strfmt.Date(d),
		ShiftCode:     shift,
		Status:        model.StatusAssigned,
	}
}

func TestPostProcessFiveDayWeek(t *testing.T) {
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "SO", Rank: "SSO"}
	ctx := testContext(e)

	var rows []model.Assignment
	for day := 1; day <= 5; day++ {
		rows = append(rows, assigned("E1", date(2026, 3, day), "D"))
	}

	warnings := calculation.PostProcess(ctx, rows)
	assert.Empty(t, warnings)

	totalNormal, totalOT := decimal.Zero, decimal.Zero
	for _, a := range rows {
		assert.True(t, a.Hours.Gross.Equal(dec("12")))
		assert.True(t, a.Hours.Lunch.Equal(dec("1")))
		totalNormal = totalNormal.Add(a.Hours.Normal)
		totalOT = totalOT.Add(a.Hours.OT)
	}
	assert.True(t, totalNormal.Equal(dec("44")), "weekly normal: %s", totalNormal)
	assert.True(t, totalOT.Equal(dec("11")), "weekly OT: %s", totalOT)
}

func TestPostProcessApgdD10ConsecutiveRun(t *testing.T) {
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "APO", Rank: "APO"}
	ctx := testContext(e)

	var rows []model.Assignment
	for day := 1; day <= 7; day++ {
		rows = append(rows, assigned("E1", date(2026, 3, day), "D"))
	}

	calculation.PostProcess(ctx, rows)

	// Days 1-5 split normally; days 6 and 7 accrue rest-day pay.
	for i := 0; i < 5; i++ {
		assert.True(t, rows[i].Hours.RestDayPay.IsZero(), "day %d", i+1)
		assert.True(t, rows[i].Hours.Normal.Equal(dec("8.8")), "day %d", i+1)
	}
	assert.True(t, rows[5].Hours.RestDayPay.Equal(dec("8")))
	assert.True(t, rows[6].Hours.RestDayPay.Equal(dec("16")))
	assert.True(t, rows[5].Hours.Normal.IsZero())
	assert.True(t, rows[6].Hours.Normal.IsZero())
}

func TestPostProcessConsecutiveRunResetsAfterGap(t *testing.T) {
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "APO", Rank: "APO"}
	ctx := testContext(e)

	// 5 days on, one off, then a new run: the 7th calendar day is run day 1.
	var rows []model.Assignment
	for day := 1; day <= 5; day++ {
		rows = append(rows, assigned("E1", date(2026, 3, day), "D"))
	}
	rows = append(rows, assigned("E1", date(2026, 3, 7), "D"))

	calculation.PostProcess(ctx, rows)

	last := rows[len(rows)-1]
	assert.True(t, last.Hours.RestDayPay.IsZero())
	assert.True(t, last.Hours.Normal.Equal(dec("8.8")))
}

func TestEnforceMonthlyOTCapsProportional(t *testing.T) {
	// 90 h of overtime across 30 equal assignments against a 72 h cap:
	// factor 0.8, each assignment drops from 3 h to 2.4 h OT and the paid
	// total is unchanged.
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "SO", Rank: "SSO"}
	ctx := testContext(e)

	var rows []model.Assignment
	for day := 1; day <= 30; day++ {
		a := assigned("E1", date(2026, 3, day), "D")
		a.Hours = model.HourBreakdown{
			Gross:      dec("12"),
			Lunch:      dec("1"),
			Normal:     dec("8"),
			OT:         dec("3"),
			RestDayPay: decimal.Zero,
			Paid:       dec("11"),
		}
		rows = append(rows, a)
	}

	warnings := calculation.EnforceMonthlyOTCaps(ctx, rows)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], calculation.WarnCodeMonthlyOTCapped)

	totalOT := decimal.Zero
	for _, a := range rows {
		assert.True(t, a.Hours.OT.Equal(dec("2.4")), "got %s", a.Hours.OT)
		assert.True(t, a.Hours.Normal.Equal(dec("8.6")))
		assert.True(t, a.Hours.Paid.Equal(dec("11")))
		totalOT = totalOT.Add(a.Hours.OT)
	}
	assert.True(t, totalOT.Equal(dec("72")))
}

func TestEnforceMonthlyOTCapsPerCalendarMonth(t *testing.T) {
	// A horizon crossing a month boundary caps each month independently.
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "SO", Rank: "SSO"}
	ctx := testContext(e)

	var rows []model.Assignment
	for day := 25; day <= 31; day++ {
		a := assigned("E1", date(2026, 3, day), "D")
		a.Hours = model.HourBreakdown{Gross: dec("12"), Lunch: dec("1"),
			Normal: decimal.Zero, OT: dec("11"), RestDayPay: decimal.Zero, Paid: dec("11")}
		rows = append(rows, a)
	}
	for day := 1; day <= 3; day++ {
		a := assigned("E1", date(2026, 4, day), "D")
		a.Hours = model.HourBreakdown{Gross: dec("12"), Lunch: dec("1"),
			Normal: decimal.Zero, OT: dec("11"), RestDayPay: decimal.Zero, Paid: dec("11")}
		rows = append(rows, a)
	}

	warnings := calculation.EnforceMonthlyOTCaps(ctx, rows)

	// March: 77 h > 72 h cap, capped. April: 33 h, untouched.
	require.Len(t, warnings, 1)
	marchOT, aprilOT := decimal.Zero, decimal.Zero
	for _, a := range rows {
		if time.Time(a.Date).Month() == time.March {
			marchOT = marchOT.Add(a.Hours.OT)
		} else {
			aprilOT = aprilOT.Add(a.Hours.OT)
		}
	}
	assert.True(t, marchOT.Equal(dec("72")), "march OT: %s", marchOT)
	assert.True(t, aprilOT.Equal(dec("33")), "april OT: %s", aprilOT)
}

func TestPostProcessIdempotent(t *testing.T) {
	e := &model.Employee{ID: "E1", Scheme: "A", ProductType: "SO", Rank: "SSO"}
	ctx := testContext(e)

	var rows []model.Assignment
	for day := 1; day <= 28; day++ {
		rows = append(rows, assigned("E1", date(2026, 3, day), "D"))
	}

	calculation.PostProcess(ctx, rows)
	first := make([]model.HourBreakdown, len(rows))
	for i, a := range rows {
		first[i] = a.Hours
	}

	calculation.PostProcess(ctx, rows)
	for i, a := range rows {
		assert.True(t, a.Hours.Gross.Equal(first[i].Gross), "row %d", i)
		assert.True(t, a.Hours.Normal.Equal(first[i].Normal), "row %d", i)
		assert.True(t, a.Hours.OT.Equal(first[i].OT), "row %d", i)
		assert.True(t, a.Hours.Paid.Equal(first[i].Paid), "row %d", i)
	}
}

func TestPostProcessZeroesNonAssignedRows(t *testing.T) {
	ctx := testContext()

	rows := []model.Assignment{
		{SlotID: "s1", Status: model.StatusUnassigned, ShiftCode: "D",
			Date: strfmt.Date(date(2026, 3, 1)), Hours: model.HourBreakdown{Gross: dec("12")}},
		{SlotID: "", Status: model.StatusOffDay, ShiftCode: model.OffMarker,
			Date: strfmt.Date(date(2026, 3, 1)), EmployeeID: strPtr("E9")},
	}

	calculation.PostProcess(ctx, rows)
	assert.True(t, rows[0].Hours.Gross.IsZero())
	assert.True(t, rows[1].Hours.Gross.IsZero())
}
