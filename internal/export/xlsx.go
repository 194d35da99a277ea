// Package export renders a solved roster as an Excel workbook: one sheet per
// calendar month with a row per employee, a column per day, and the monthly
// hour totals at the end.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// Workbook builds the roster workbook in memory.
func Workbook(out *model.Output) (*excelize.File, error) {
	f := excelize.NewFile()

	months := monthsOf(out)
	if len(months) == 0 {
		return f, nil
	}

	for i, month := range months {
		sheet := month
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		if err := writeMonth(f, sheet, month, out); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteFile builds the workbook and saves it to path.
func WriteFile(out *model.Output, path string) error {
	f, err := Workbook(out)
	if err != nil {
		return err
	}
	return f.SaveAs(path)
}

func monthsOf(out *model.Output) []string {
	seen := make(map[string]struct{})
	for _, r := range out.EmployeeRoster {
		for _, day := range r.Timeline {
			seen[timeutil.MonthKey(time.Time(day.Date))] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func writeMonth(f *excelize.File, sheet, month string, out *model.Output) error {
	set := func(col, row int, value interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	// Collect the month's dates from the first roster timeline.
	var dates []time.Time
	if len(out.EmployeeRoster) > 0 {
		for _, day := range out.EmployeeRoster[0].Timeline {
			if timeutil.MonthKey(time.Time(day.Date)) == month {
				dates = append(dates, time.Time(day.Date))
			}
		}
	}

	if err := set(1, 1, "Employee"); err != nil {
		return err
	}
	for i, d := range dates {
		if err := set(2+i, 1, d.Day()); err != nil {
			return err
		}
	}
	totalsStart := 2 + len(dates)
	for i, label := range []string{"Normal", "OT", "RDP", "Paid"} {
		if err := set(totalsStart+i, 1, label); err != nil {
			return err
		}
	}

	for r, roster := range out.EmployeeRoster {
		row := r + 2
		if err := set(1, row, roster.EmployeeID); err != nil {
			return err
		}
		for i, d := range dates {
			code := model.OffMarker
			for _, day := range roster.Timeline {
				if time.Time(day.Date).Equal(d) {
					code = day.ShiftCode
					break
				}
			}
			if err := set(2+i, row, code); err != nil {
				return err
			}
		}

		var totals *model.MonthTotals
		for i := range roster.MonthlyTotals {
			if roster.MonthlyTotals[i].Month == month {
				totals = &roster.MonthlyTotals[i]
				break
			}
		}
		if totals == nil {
			continue
		}
		values := []string{
			totals.Normal.String(),
			totals.OT.String(),
			totals.RestDayPay.String(),
			totals.Paid.String(),
		}
		for i, v := range values {
			if err := set(totalsStart+i, row, v); err != nil {
				return err
			}
		}
	}

	return nil
}
