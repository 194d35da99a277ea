// Package model defines the input and output documents of the roster engine,
// schema version 0.95. Input entities are immutable during a run; the
// orchestrator normalises schemes once at intake and never mutates them again.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// SchemaVersion is the only input/output schema version this engine accepts.
const SchemaVersion = "0.95"

// Horizon is the closed planning interval. Public holidays are carried
// separately in Input.PublicHolidays.
type Horizon struct {
	StartDate strfmt.Date `json:"startDate"`
	EndDate   strfmt.Date `json:"endDate"`
}

// Start returns the horizon start as a civil date.
func (h Horizon) Start() time.Time {
	return timeutil.Truncate(time.Time(h.StartDate))
}

// End returns the horizon end as a civil date.
func (h Horizon) End() time.Time {
	return timeutil.Truncate(time.Time(h.EndDate))
}

// Dates returns every civil date in the horizon, chronological.
func (h Horizon) Dates() []time.Time {
	return timeutil.DatesBetween(h.Start(), h.End())
}

// Contains reports whether a date falls inside the horizon.
func (h Horizon) Contains(d time.Time) bool {
	d = timeutil.Truncate(d)
	return !d.Before(h.Start()) && !d.After(h.End())
}

// ShiftDef identifies a shift by a short code and its daily time window.
// End before start means the shift crosses midnight.
type ShiftDef struct {
	Code      string   `json:"code"`
	StartTime string   `json:"startTime"` // HH:MM
	EndTime   string   `json:"endTime"`   // HH:MM
	Ranks     []string `json:"ranks,omitempty"`
	Products  []string `json:"products,omitempty"`
}

// Minutes parses the shift window into minutes from midnight.
func (s ShiftDef) Minutes() (start, end int, err error) {
	start, err = timeutil.ParseTimeString(s.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("shift %s startTime: %w", s.Code, err)
	}
	end, err = timeutil.ParseTimeString(s.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("shift %s endTime: %w", s.Code, err)
	}
	return start, end, nil
}

// DurationMinutes returns the shift length, cross-midnight aware.
func (s ShiftDef) DurationMinutes() (int, error) {
	start, end, err := s.Minutes()
	if err != nil {
		return 0, err
	}
	return timeutil.ShiftDurationMinutes(start, end), nil
}

// DateRange is a closed civil-date interval.
type DateRange struct {
	StartDate strfmt.Date `json:"startDate"`
	EndDate   strfmt.Date `json:"endDate"`
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = timeutil.Truncate(d)
	return !d.Before(timeutil.Truncate(time.Time(r.StartDate))) &&
		!d.After(timeutil.Truncate(time.Time(r.EndDate)))
}

// Qualification is a certified capability with a validity window.
type Qualification struct {
	Code      string      `json:"code"`
	ValidFrom strfmt.Date `json:"validFrom"`
	ValidTo   strfmt.Date `json:"validTo"`
}

// ValidOn reports whether the qualification is active on the given date.
func (q Qualification) ValidOn(d time.Time) bool {
	return DateRange{StartDate: q.ValidFrom, EndDate: q.ValidTo}.Contains(d)
}

// Gender filter values on requirements.
const (
	GenderAll    = "All"
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderMix    = "Mix"
)

// Employee is one roster candidate. Immutable within a run.
type Employee struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	Scheme         string          `json:"scheme"` // raw until Normalize; canonical letter afterwards
	ProductType    string          `json:"productType"`
	Rank           string          `json:"rank"`
	Gender         string          `json:"gender,omitempty"` // M, F or empty
	OuID           string          `json:"ouId"`
	RotationOffset int             `json:"rotationOffset"`
	IsLocal        bool            `json:"isLocal,omitempty"`
	Qualifications []Qualification `json:"qualifications,omitempty"`
	Leaves         []DateRange     `json:"leaves,omitempty"`

	// Accepted but ignored: APGD-D10 qualification is derived from
	// scheme/product, never from this flag (documented deprecation).
	DeprecatedEnableApgdD10 *bool `json:"enableAPGD-D10,omitempty"`
}

// SchemeLetter returns the employee's normalised scheme. Call only after
// Input.Normalize has run.
func (e *Employee) SchemeLetter() scheme.Scheme {
	return scheme.Scheme(e.Scheme)
}

// IsApgdD10 reports whether the employee holds the APGD-D10 exemption.
func (e *Employee) IsApgdD10() bool {
	return scheme.IsApgdD10(e.SchemeLetter(), e.ProductType)
}

// OnLeave reports whether the employee is on leave on the given date.
func (e *Employee) OnLeave(d time.Time) bool {
	for _, l := range e.Leaves {
		if l.Contains(d) {
			return true
		}
	}
	return false
}

// HasValidQualification reports whether the employee holds qualification code
// q valid on date d.
func (e *Employee) HasValidQualification(q string, d time.Time) bool {
	for _, rec := range e.Qualifications {
		if rec.Code == q && rec.ValidOn(d) {
			return true
		}
	}
	return false
}

// Rostering basis values on requirements.
const (
	BasisDemandBased  = "demandBased"
	BasisOutcomeBased = "outcomeBased"
)

// Requirement is one coverage need inside a demand item.
type Requirement struct {
	ID                     string      `json:"id"`
	ShiftCodes             []string    `json:"shiftCodes"`
	Pattern                WorkPattern `json:"workPattern"`
	HeadcountPerShift      int         `json:"headcountPerShift"`
	Scheme                 string      `json:"scheme"`
	Ranks                  []string    `json:"ranks,omitempty"`
	ProductTypes           []string    `json:"productTypes,omitempty"`
	Gender                 string      `json:"gender,omitempty"`
	RequiredQualifications []string    `json:"requiredQualifications,omitempty"`
	TeamWhitelist          []string    `json:"teamWhitelist,omitempty"`
	RosteringBasis         string      `json:"rosteringBasis,omitempty"`
	EnableOtAwareIcpmp     *bool       `json:"enableOtAwareIcpmp,omitempty"`
	IcpmpBufferPercentage  *float64    `json:"icpmpBufferPercentage,omitempty"`
	StrictAdherenceRatio   *float64    `json:"strictAdherenceRatio,omitempty"`
}

// DemandItem is one business booking covering a date range.
type DemandItem struct {
	ID           string        `json:"id"`
	OuID         string        `json:"ouId"`
	Range        DateRange     `json:"dateRange"`
	Requirements []Requirement `json:"requirements"`
}

// Constraint enforcement levels.
const (
	EnforcementHard = "hard"
	EnforcementSoft = "soft"
)

// OverrideRule is one entry of a list-form scheme override; first match wins.
type OverrideRule struct {
	ProductTypes []string `json:"productTypes,omitempty"`
	Ranks        []string `json:"ranks,omitempty"`
	Value        float64  `json:"value"`
}

// OverrideSpec is a scheme override: either a scalar applying to the whole
// scheme, or an ordered rule list with product/rank filters.
type OverrideSpec struct {
	Scalar *float64
	Rules  []OverrideRule
}

// UnmarshalJSON accepts both the scalar and the rule-list forms.
func (o *OverrideSpec) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		o.Scalar = &scalar
		o.Rules = nil
		return nil
	}
	var rules []OverrideRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("scheme override must be a number or a rule list: %w", err)
	}
	o.Scalar = nil
	o.Rules = rules
	return nil
}

// MarshalJSON renders the form that was parsed.
func (o OverrideSpec) MarshalJSON() ([]byte, error) {
	if o.Scalar != nil {
		return json.Marshal(*o.Scalar)
	}
	return json.Marshal(o.Rules)
}

// ConstraintRecord is one catalog entry (C1-C17).
type ConstraintRecord struct {
	ID              string                  `json:"id"`
	Enforcement     string                  `json:"enforcement"`
	DefaultValue    float64                 `json:"defaultValue"`
	SchemeOverrides map[string]OverrideSpec `json:"schemeOverrides,omitempty"`
}

// Monthly hour limit calculation methods.
const (
	CalculationMethodMonthly = "monthly"
	CalculationMethodDaily   = "daily"
)

// MonthlyHourLimits overrides the built-in per-month-length hour tables.
// Keys of the maps are month lengths: "28", "29", "30", "31".
type MonthlyHourLimits struct {
	CalculationMethod  string             `json:"calculationMethod,omitempty"`
	MinimumContractual map[string]float64 `json:"minimumContractual,omitempty"`
	OvertimeCap        map[string]float64 `json:"overtimeCap,omitempty"`
}

// OverrideApproval is an explicit exception granted per employee and date:
// it waives qualification matching for the named requirement (or all
// requirements when RequirementID is empty).
type OverrideApproval struct {
	EmployeeID    string      `json:"employeeId"`
	Date          strfmt.Date `json:"date"`
	RequirementID string      `json:"requirementId,omitempty"`
}

// SolverConfig carries backend knobs surfaced to the core.
type SolverConfig struct {
	TimeLimitSeconds     float64  `json:"timeLimitSeconds"`
	StrictAdherenceRatio *float64 `json:"strictAdherenceRatio,omitempty"`
	Seed                 *int64   `json:"seed,omitempty"`
	Workers              *int     `json:"workers,omitempty"`
}

// DefaultTimeLimitSeconds applies when solverConfig.timeLimitSeconds is absent.
const DefaultTimeLimitSeconds = 300

// Input is the complete request document, schema version 0.95.
type Input struct {
	SchemaVersion     string             `json:"schemaVersion"`
	PlanningHorizon   Horizon            `json:"planningHorizon"`
	PublicHolidays    []strfmt.Date      `json:"publicHolidays"`
	Shifts            []ShiftDef         `json:"shifts"`
	Employees         []Employee         `json:"employees"`
	DemandItems       []DemandItem       `json:"demandItems"`
	ConstraintList    []ConstraintRecord `json:"constraintList"`
	OverrideApprovals []OverrideApproval `json:"overrideApprovals,omitempty"`
	MonthlyHourLimits *MonthlyHourLimits `json:"monthlyHourLimits,omitempty"`
	SolverConfig      SolverConfig       `json:"solverConfig"`
}

// ShiftByCode returns the shift definition for a code, or nil.
func (in *Input) ShiftByCode(code string) *ShiftDef {
	for i := range in.Shifts {
		if in.Shifts[i].Code == code {
			return &in.Shifts[i]
		}
	}
	return nil
}

// HolidayDates returns the public holidays as civil dates.
func (in *Input) HolidayDates() []time.Time {
	dates := make([]time.Time, 0, len(in.PublicHolidays))
	for _, d := range in.PublicHolidays {
		dates = append(dates, timeutil.Truncate(time.Time(d)))
	}
	return dates
}
