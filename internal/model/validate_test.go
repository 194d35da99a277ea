package model_test

import (
	"encoding/json"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara/rosterd/internal/model"
)

func validInput() *model.Input {
	return &model.Input{
		SchemaVersion: model.SchemaVersion,
		PlanningHorizon: model.Horizon{
			StartDate: strfmt.Date(date(2026, 3, 1)),
			EndDate:   strfmt.Date(date(2026, 3, 31)),
		},
		Shifts: []model.ShiftDef{
			{Code: "D", StartTime: "08:00", EndTime: "20:00"},
			{Code: "N", StartTime: "20:00", EndTime: "08:00"},
		},
		Employees: []model.Employee{
			{ID: "E1", Scheme: "Scheme A", ProductType: "APO", Rank: "SSO", OuID: "OU1"},
			{ID: "E2", Scheme: "b", ProductType: "SO", Rank: "SO", OuID: "OU1"},
		},
		DemandItems: []model.DemandItem{
			{
				ID:   "DM1",
				OuID: "OU1",
				Range: model.DateRange{
					StartDate: strfmt.Date(date(2026, 3, 1)),
					EndDate:   strfmt.Date(date(2026, 3, 31)),
				},
				Requirements: []model.Requirement{
					{
						ID:                "R1",
						ShiftCodes:        []string{"D", "N"},
						Pattern:           model.WorkPattern{"D", "D", "N", "N", "O", "O"},
						HeadcountPerShift: 1,
						Scheme:            "A",
					},
				},
			},
		},
		ConstraintList: []model.ConstraintRecord{
			{ID: "C1", Enforcement: model.EnforcementHard, DefaultValue: 14},
		},
		SolverConfig: model.SolverConfig{TimeLimitSeconds: 60},
	}
}

func TestNormalizeValid(t *testing.T) {
	in := validInput()
	require.NoError(t, in.Normalize())

	// Schemes are canonicalised in place.
	assert.Equal(t, "A", in.Employees[0].Scheme)
	assert.Equal(t, "B", in.Employees[1].Scheme)
	assert.Equal(t, "A", in.DemandItems[0].Requirements[0].Scheme)
	assert.True(t, in.Employees[0].IsApgdD10())
	assert.False(t, in.Employees[1].IsApgdD10())
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Input)
	}{
		{"wrong schema version", func(in *model.Input) { in.SchemaVersion = "0.94" }},
		{"unknown scheme", func(in *model.Input) { in.Employees[0].Scheme = "Scheme X" }},
		{"duplicate employee", func(in *model.Input) { in.Employees[1].ID = "E1" }},
		{"negative offset", func(in *model.Input) { in.Employees[0].RotationOffset = -1 }},
		{"bad shift time", func(in *model.Input) { in.Shifts[0].StartTime = "25:00" }},
		{"unknown pattern shift", func(in *model.Input) {
			in.DemandItems[0].Requirements[0].Pattern = model.WorkPattern{"X", "O"}
		}},
		{"zero headcount", func(in *model.Input) {
			in.DemandItems[0].Requirements[0].HeadcountPerShift = 0
		}},
		{"holiday outside horizon", func(in *model.Input) {
			in.PublicHolidays = []strfmt.Date{strfmt.Date(date(2026, 4, 1))}
		}},
		{"demand outside horizon", func(in *model.Input) {
			in.DemandItems[0].Range.EndDate = strfmt.Date(date(2026, 4, 2))
		}},
		{"buffer out of range", func(in *model.Input) {
			v := 150.0
			in.DemandItems[0].Requirements[0].IcpmpBufferPercentage = &v
		}},
		{"bad adherence ratio", func(in *model.Input) {
			v := 1.5
			in.SolverConfig.StrictAdherenceRatio = &v
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			assert.Error(t, in.Normalize())
		})
	}
}

func TestDeprecatedApgdFlagIgnored(t *testing.T) {
	in := validInput()
	flag := true
	in.Employees[1].DeprecatedEnableApgdD10 = &flag
	require.NoError(t, in.Normalize())

	// Scheme B never qualifies, regardless of the legacy flag.
	assert.False(t, in.Employees[1].IsApgdD10())
}

func TestOverrideSpecUnmarshal(t *testing.T) {
	var scalar model.OverrideSpec
	require.NoError(t, json.Unmarshal([]byte(`13`), &scalar))
	require.NotNil(t, scalar.Scalar)
	assert.Equal(t, 13.0, *scalar.Scalar)

	var rules model.OverrideSpec
	require.NoError(t, json.Unmarshal(
		[]byte(`[{"productTypes":["SO"],"value":12},{"value":13}]`), &rules))
	assert.Nil(t, rules.Scalar)
	require.Len(t, rules.Rules, 2)
	assert.Equal(t, 12.0, rules.Rules[0].Value)

	var bad model.OverrideSpec
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &bad))
}
