package limits_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
)

func schemeA() *model.Employee {
	return &model.Employee{ID: "E1", Scheme: "A", ProductType: "SO", Rank: "SSO"}
}

func apgd() *model.Employee {
	return &model.Employee{ID: "E2", Scheme: "A", ProductType: "APO", Rank: "APO"}
}

func ptr(v float64) *float64 { return &v }

func TestResolveCatalogDefault(t *testing.T) {
	r := limits.NewResolver([]model.ConstraintRecord{
		{ID: "C1", Enforcement: model.EnforcementHard, DefaultValue: 12},
	}, nil)

	assert.True(t, r.Resolve("C1", schemeA()).Equal(decimal.NewFromInt(12)))
}

func TestResolveScalarOverride(t *testing.T) {
	r := limits.NewResolver([]model.ConstraintRecord{
		{
			ID: "C1", Enforcement: model.EnforcementHard, DefaultValue: 14,
			SchemeOverrides: map[string]model.OverrideSpec{
				"B": {Scalar: ptr(13)},
			},
		},
	}, nil)

	b := &model.Employee{ID: "E3", Scheme: "B", ProductType: "SO", Rank: "SO"}
	assert.True(t, r.Resolve("C1", b).Equal(decimal.NewFromInt(13)))
	assert.True(t, r.Resolve("C1", schemeA()).Equal(decimal.NewFromInt(14)))
}

func TestResolveRuleListFirstMatchWins(t *testing.T) {
	r := limits.NewResolver([]model.ConstraintRecord{
		{
			ID: "C4", Enforcement: model.EnforcementHard, DefaultValue: 11,
			SchemeOverrides: map[string]model.OverrideSpec{
				"A": {Rules: []model.OverrideRule{
					{ProductTypes: []string{"APO"}, Value: 8},
					{Ranks: []string{"SSO"}, Value: 10},
					{Value: 11},
				}},
			},
		},
	}, nil)

	assert.True(t, r.Resolve("C4", apgd()).Equal(decimal.NewFromInt(8)))
	assert.True(t, r.Resolve("C4", schemeA()).Equal(decimal.NewFromInt(10)))

	other := &model.Employee{ID: "E4", Scheme: "A", ProductType: "SO", Rank: "SO"}
	assert.True(t, r.Resolve("C4", other).Equal(decimal.NewFromInt(11)))
}

func TestBuiltinDefaults(t *testing.T) {
	r := limits.NewResolver(nil, nil)

	assert.True(t, r.Resolve("C1", schemeA()).Equal(decimal.NewFromInt(14)))
	assert.True(t, r.Resolve("C2", schemeA()).Equal(decimal.NewFromInt(44)))
	assert.True(t, r.Resolve("C3", schemeA()).Equal(decimal.NewFromInt(12)))
	assert.True(t, r.Resolve("C3", apgd()).Equal(decimal.NewFromInt(8)))
	assert.True(t, r.Resolve("C4", schemeA()).Equal(decimal.NewFromInt(11)))
	assert.True(t, r.Resolve("C4", apgd()).Equal(decimal.NewFromInt(8)))

	p := &model.Employee{ID: "E5", Scheme: "P", ProductType: "SO", Rank: "SO"}
	assert.True(t, r.Resolve("C16", p).Equal(decimal.NewFromInt(2)))
	assert.True(t, r.Resolve("C16", schemeA()).Equal(decimal.NewFromInt(1)))
}

func TestMonthlyOTCap(t *testing.T) {
	r := limits.NewResolver(nil, nil)

	assert.True(t, r.MonthlyOTCap(schemeA(), 2026, time.March).Equal(decimal.NewFromInt(72)))
	assert.True(t, r.MonthlyOTCap(apgd(), 2026, time.March).Equal(decimal.NewFromInt(124)))
	assert.True(t, r.MonthlyOTCap(apgd(), 2026, time.April).Equal(decimal.NewFromInt(120)))
	assert.True(t, r.MonthlyOTCap(apgd(), 2026, time.February).Equal(decimal.NewFromInt(112)))
}

func TestMonthlyOTCapFromTable(t *testing.T) {
	r := limits.NewResolver(nil, &model.MonthlyHourLimits{
		OvertimeCap: map[string]float64{"31": 80},
	})

	assert.True(t, r.MonthlyOTCap(schemeA(), 2026, time.March).Equal(decimal.NewFromInt(80)))
	// Month lengths missing from the table fall back to the standard cap.
	assert.True(t, r.MonthlyOTCap(schemeA(), 2026, time.April).Equal(decimal.NewFromInt(72)))
}

func TestMonthlyContractual(t *testing.T) {
	r := limits.NewResolver(nil, nil)

	// 44 x 31/7 = 194.86
	assert.True(t, r.MonthlyContractual(2026, time.March).Equal(decimal.RequireFromString("194.86")))
	// 44 x 28/7 = 176
	assert.True(t, r.MonthlyContractual(2026, time.February).Equal(decimal.NewFromInt(176)))

	withTable := limits.NewResolver(nil, &model.MonthlyHourLimits{
		MinimumContractual: map[string]float64{"31": 198},
	})
	assert.True(t, withTable.MonthlyContractual(2026, time.March).Equal(decimal.NewFromInt(198)))
}

func TestCalculationMethod(t *testing.T) {
	assert.Equal(t, model.CalculationMethodMonthly, limits.NewResolver(nil, nil).CalculationMethod())

	daily := limits.NewResolver(nil, &model.MonthlyHourLimits{
		CalculationMethod: model.CalculationMethodDaily,
	})
	assert.Equal(t, model.CalculationMethodDaily, daily.CalculationMethod())
}

func TestEnforcement(t *testing.T) {
	r := limits.NewResolver([]model.ConstraintRecord{
		{ID: "ROT", Enforcement: model.EnforcementSoft, DefaultValue: 1},
	}, nil)

	assert.Equal(t, model.EnforcementSoft, r.Enforcement("ROT"))
	assert.Equal(t, model.EnforcementHard, r.Enforcement("C1"))
}
