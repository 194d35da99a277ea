package model

import (
	"fmt"
	"time"

	oaerrors "github.com/go-openapi/errors"

	"github.com/amara/rosterd/internal/scheme"
	"github.com/amara/rosterd/internal/timeutil"
)

// Normalize validates the input document and canonicalises scheme strings in
// place. It is the only mutation the input ever sees; everything downstream
// treats the document as frozen.
//
// Validation failures are reported as a composite error carrying one entry per
// offending JSON path.
func (in *Input) Normalize() error {
	var errs []error

	if in.SchemaVersion != SchemaVersion {
		errs = append(errs, oaerrors.New(422,
			"schemaVersion: expected %q, got %q", SchemaVersion, in.SchemaVersion))
	}

	start := in.PlanningHorizon.Start()
	end := in.PlanningHorizon.End()
	if start.IsZero() || end.IsZero() {
		errs = append(errs, oaerrors.Required("planningHorizon", "body", nil))
	} else if end.Before(start) {
		errs = append(errs, oaerrors.New(422,
			"planningHorizon: endDate %s precedes startDate %s",
			timeutil.FormatDate(end), timeutil.FormatDate(start)))
	}

	for i, d := range in.PublicHolidays {
		if !in.PlanningHorizon.Contains(time.Time(d)) {
			errs = append(errs, oaerrors.New(422,
				"publicHolidays[%d]: %s outside planning horizon", i, d.String()))
		}
	}

	shiftCodes := make(map[string]struct{}, len(in.Shifts))
	for i, s := range in.Shifts {
		path := fmt.Sprintf("shifts[%d]", i)
		if s.Code == "" {
			errs = append(errs, oaerrors.Required(path+".code", "body", nil))
			continue
		}
		if _, dup := shiftCodes[s.Code]; dup {
			errs = append(errs, oaerrors.New(422, "%s: duplicate shift code %q", path, s.Code))
		}
		shiftCodes[s.Code] = struct{}{}
		if _, _, err := s.Minutes(); err != nil {
			errs = append(errs, oaerrors.New(422, "%s: %v", path, err))
		}
	}

	employeeIDs := make(map[string]struct{}, len(in.Employees))
	for i := range in.Employees {
		e := &in.Employees[i]
		path := fmt.Sprintf("employees[%d]", i)
		if e.ID == "" {
			errs = append(errs, oaerrors.Required(path+".id", "body", nil))
			continue
		}
		if _, dup := employeeIDs[e.ID]; dup {
			errs = append(errs, oaerrors.New(422, "%s: duplicate employee id %q", path, e.ID))
		}
		employeeIDs[e.ID] = struct{}{}

		normalized, err := scheme.Normalize(e.Scheme)
		if err != nil {
			errs = append(errs, oaerrors.New(422, "%s.scheme: %v", path, err))
		} else {
			e.Scheme = string(normalized)
		}
		if e.RotationOffset < 0 {
			errs = append(errs, oaerrors.New(422,
				"%s.rotationOffset: must be non-negative, got %d", path, e.RotationOffset))
		}
	}

	for i := range in.DemandItems {
		item := &in.DemandItems[i]
		path := fmt.Sprintf("demandItems[%d]", i)
		if item.ID == "" {
			errs = append(errs, oaerrors.Required(path+".id", "body", nil))
		}
		if !in.PlanningHorizon.Contains(time.Time(item.Range.StartDate)) ||
			!in.PlanningHorizon.Contains(time.Time(item.Range.EndDate)) {
			errs = append(errs, oaerrors.New(422,
				"%s.dateRange: outside planning horizon", path))
		}
		for j := range item.Requirements {
			req := &item.Requirements[j]
			rpath := fmt.Sprintf("%s.requirements[%d]", path, j)
			if req.HeadcountPerShift <= 0 {
				errs = append(errs, oaerrors.New(422,
					"%s.headcountPerShift: must be positive", rpath))
			}
			if len(req.Pattern) == 0 {
				errs = append(errs, oaerrors.Required(rpath+".workPattern", "body", nil))
			}
			for _, code := range req.ShiftCodes {
				if _, ok := shiftCodes[code]; !ok {
					errs = append(errs, oaerrors.New(422,
						"%s.shiftCodes: unknown shift %q", rpath, code))
				}
			}
			for _, entry := range req.Pattern {
				if entry == OffMarker {
					continue
				}
				if _, ok := shiftCodes[entry]; !ok {
					errs = append(errs, oaerrors.New(422,
						"%s.workPattern: unknown shift %q", rpath, entry))
				}
			}
			if req.Scheme != "" {
				normalized, err := scheme.Normalize(req.Scheme)
				if err != nil {
					errs = append(errs, oaerrors.New(422, "%s.scheme: %v", rpath, err))
				} else {
					req.Scheme = string(normalized)
				}
			}
			if req.IcpmpBufferPercentage != nil &&
				(*req.IcpmpBufferPercentage < 0 || *req.IcpmpBufferPercentage > 100) {
				errs = append(errs, oaerrors.New(422,
					"%s.icpmpBufferPercentage: must be in [0,100]", rpath))
			}
			if req.RosteringBasis != "" &&
				req.RosteringBasis != BasisDemandBased && req.RosteringBasis != BasisOutcomeBased {
				errs = append(errs, oaerrors.New(422,
					"%s.rosteringBasis: unknown basis %q", rpath, req.RosteringBasis))
			}
		}
	}

	for i, c := range in.ConstraintList {
		path := fmt.Sprintf("constraintList[%d]", i)
		if c.ID == "" {
			errs = append(errs, oaerrors.Required(path+".id", "body", nil))
		}
		if c.Enforcement != EnforcementHard && c.Enforcement != EnforcementSoft {
			errs = append(errs, oaerrors.New(422,
				"%s.enforcement: must be hard or soft, got %q", path, c.Enforcement))
		}
	}

	if in.SolverConfig.TimeLimitSeconds < 0 {
		errs = append(errs, oaerrors.New(422,
			"solverConfig.timeLimitSeconds: must be positive"))
	}
	if r := in.SolverConfig.StrictAdherenceRatio; r != nil && (*r < 0 || *r > 1) {
		errs = append(errs, oaerrors.New(422,
			"solverConfig.strictAdherenceRatio: must be in [0,1]"))
	}

	if len(errs) > 0 {
		return oaerrors.CompositeValidationError(errs...)
	}
	return nil
}
