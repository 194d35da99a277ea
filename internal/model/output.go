package model

import (
	"github.com/go-openapi/strfmt"
	"github.com/shopspring/decimal"
)

// Assignment statuses.
const (
	StatusAssigned   = "ASSIGNED"
	StatusUnassigned = "UNASSIGNED"
	StatusOffDay     = "OFF_DAY"
)

// Run statuses for the job lifecycle.
const (
	RunStatusQueued     = "QUEUED"
	RunStatusInProgress = "IN_PROGRESS"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
	RunStatusCancelled  = "CANCELLED"
)

// Solver terminal statuses.
const (
	SolveStatusOptimal    = "OPTIMAL"
	SolveStatusFeasible   = "FEASIBLE"
	SolveStatusInfeasible = "INFEASIBLE"
	SolveStatusUnknown    = "UNKNOWN"
)

// HourBreakdown is the per-assignment hour accounting.
// Invariants: gross = lunch + normal + ot; paid = normal + ot + restDayPay.
type HourBreakdown struct {
	Gross      decimal.Decimal `json:"gross"`
	Lunch      decimal.Decimal `json:"lunch"`
	Normal     decimal.Decimal `json:"normal"`
	OT         decimal.Decimal `json:"ot"`
	RestDayPay decimal.Decimal `json:"restDayPay"`
	Paid       decimal.Decimal `json:"paid"`
}

// ZeroHours returns an all-zero breakdown.
func ZeroHours() HourBreakdown {
	return HourBreakdown{
		Gross:      decimal.Zero,
		Lunch:      decimal.Zero,
		Normal:     decimal.Zero,
		OT:         decimal.Zero,
		RestDayPay: decimal.Zero,
		Paid:       decimal.Zero,
	}
}

// Assignment is one output row: a filled slot, an unfillable slot, or a
// synthesised off day. OFF_DAY rows carry shift code "O" (work-pattern
// notation) rather than a null.
type Assignment struct {
	AssignmentID  string        `json:"assignmentId"`
	SlotID        string        `json:"slotId"`
	EmployeeID    *string       `json:"employeeId"`
	DemandID      string        `json:"demandId"`
	RequirementID string        `json:"requirementId"`
	Date          strfmt.Date   `json:"date"`
	ShiftCode     string        `json:"shiftCode"`
	Status        string        `json:"status"`
	StartDateTime string        `json:"startDateTime"`
	EndDateTime   string        `json:"endDateTime"`
	Hours         HourBreakdown `json:"hours"`
}

// DayStatus is one cell of an employee's daily timeline.
type DayStatus struct {
	Date      strfmt.Date `json:"date"`
	Status    string      `json:"status"`
	ShiftCode string      `json:"shiftCode"`
	Holiday   bool        `json:"holiday,omitempty"`
}

// MonthTotals aggregates an employee's hours for one calendar month.
type MonthTotals struct {
	Month      string          `json:"month"` // YYYY-MM
	Gross      decimal.Decimal `json:"gross"`
	Normal     decimal.Decimal `json:"normal"`
	OT         decimal.Decimal `json:"ot"`
	RestDayPay decimal.Decimal `json:"restDayPay"`
	Paid       decimal.Decimal `json:"paid"`
	WorkDays   int             `json:"workDays"`
}

// EmployeeRoster is one employee's view of the month: totals plus timeline.
type EmployeeRoster struct {
	EmployeeID    string        `json:"employeeId"`
	Scheme        string        `json:"scheme"`
	ProductType   string        `json:"productType"`
	MonthlyTotals []MonthTotals `json:"monthlyTotals"`
	Timeline      []DayStatus   `json:"timeline"`
}

// Score summarises solution quality.
type Score struct {
	HardViolations  int `json:"hardViolations"`
	SoftPenalty     int `json:"softPenalty"`
	UnassignedSlots int `json:"unassignedSlots"`
}

// SolverRun describes the solve execution.
type SolverRun struct {
	RunID               string  `json:"runId"`
	Status              string  `json:"status"` // OPTIMAL | FEASIBLE | INFEASIBLE | UNKNOWN
	SolveWallTimeSecond float64 `json:"solveWallTimeSeconds"`
	Seed                int64   `json:"seed"`
}

// Output is the complete response document, schema version 0.95.
// Ordering is deterministic: assignments by (date, shift code, slot id),
// employees by id.
type Output struct {
	SchemaVersion  string           `json:"schemaVersion"`
	SolverRun      SolverRun        `json:"solverRun"`
	Score          Score            `json:"score"`
	Assignments    []Assignment     `json:"assignments"`
	EmployeeRoster []EmployeeRoster `json:"employeeRoster"`
	Warnings       []string         `json:"warnings"`
}
