package roster_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/roster"
)

func pool(n int) []*model.Employee {
	out := make([]*model.Employee, n)
	for i := range out {
		out[i] = &model.Employee{
			ID:          fmt.Sprintf("E%02d", i+1),
			Scheme:      "A",
			ProductType: "SO",
			Rank:        "SO",
			OuID:        "OU1",
		}
	}
	return out
}

func TestPreprocessCombinatorialMinimumWithBuffer(t *testing.T) {
	req := &model.Requirement{
		ID:                "R1",
		ShiftCodes:        []string{"D"},
		Pattern:           model.WorkPattern{"D", "D", "N", "N", "O", "O"},
		HeadcountPerShift: 2,
	}

	result := roster.Preprocess(req, pool(20), roster.PreprocessOptions{
		MonthLength:      30,
		BufferPercentage: 20,
	})

	// ceil(2 * 6 / 4) = 3 raw, x1.2 = 3.6 -> 4.
	assert.Equal(t, 4, result.Required)
	assert.Len(t, result.Selected, 4)
	assert.Empty(t, result.Warnings)
}

func TestPreprocessOTAwareSkipsBuffer(t *testing.T) {
	// Raw OT-aware optimum of 11; a 50% buffer must NOT inflate it to 16
	// because the buffer is already folded into the monthly-hour arithmetic.
	req := &model.Requirement{
		ID:                "R1",
		ShiftCodes:        []string{"D"},
		Pattern:           model.WorkPattern{"D", "D", "D", "D", "D", "O", "O"},
		HeadcountPerShift: 6,
	}

	result := roster.Preprocess(req, pool(20), roster.PreprocessOptions{
		MonthLength:      31,
		OTAware:          true,
		BufferPercentage: 50,
		AvgShiftHours:    decimal.NewFromInt(12),
		WeeklyNormalCap:  decimal.NewFromInt(44),
		MonthlyOTCap:     decimal.NewFromInt(72),
	})

	// required = 6 x 31 x 12 = 2232 h; capacity = 44x4 + 72 - 31 = 217 h;
	// ceil(2232/217) = 11.
	assert.Equal(t, 11, result.Required)
	assert.Len(t, result.Selected, 11)
}

func TestPreprocessCapsToPool(t *testing.T) {
	req := &model.Requirement{
		ID:                "R1",
		ShiftCodes:        []string{"D"},
		Pattern:           model.WorkPattern{"D", "O"},
		HeadcountPerShift: 10,
	}

	result := roster.Preprocess(req, pool(3), roster.PreprocessOptions{
		MonthLength:      30,
		BufferPercentage: 20,
	})

	require.Len(t, result.Selected, 3)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ICPMP_POOL_EXHAUSTED")
}

func TestPreprocessOffsetDistribution(t *testing.T) {
	req := &model.Requirement{
		ID:                "R1",
		ShiftCodes:        []string{"D"},
		Pattern:           model.WorkPattern{"D", "D", "O"},
		HeadcountPerShift: 3,
	}

	result := roster.Preprocess(req, pool(20), roster.PreprocessOptions{
		MonthLength:      30,
		BufferPercentage: 0,
	})

	// ceil(3*3/2) = 5 selected across offsets {0,1,2}: counts 2/2/1.
	require.Equal(t, 5, result.Required)
	counts := map[int]int{}
	for _, off := range result.Offsets {
		counts[off]++
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 1}, counts)
}

func TestPreprocessDeterministicSelection(t *testing.T) {
	req := &model.Requirement{
		ID:                "R1",
		ShiftCodes:        []string{"D"},
		Pattern:           model.WorkPattern{"D", "O"},
		HeadcountPerShift: 1,
	}

	a := roster.Preprocess(req, pool(10), roster.PreprocessOptions{MonthLength: 30, BufferPercentage: 0})
	b := roster.Preprocess(req, pool(10), roster.PreprocessOptions{MonthLength: 30, BufferPercentage: 0})

	require.Equal(t, len(a.Selected), len(b.Selected))
	for i := range a.Selected {
		assert.Equal(t, a.Selected[i].ID, b.Selected[i].ID)
	}
}
