package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amara/rosterd/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkPatternWorkDays(t *testing.T) {
	p := model.WorkPattern{"D", "D", "N", "N", "O", "O"}
	assert.Equal(t, 6, p.Len())
	assert.Equal(t, 4, p.WorkDays())
}

func TestWorkPatternWorkDaysPerWeek(t *testing.T) {
	tests := []struct {
		name     string
		pattern  model.WorkPattern
		expected int
	}{
		{"5 on 2 off", model.WorkPattern{"D", "D", "D", "D", "D", "O", "O"}, 5},
		{"4 on 2 off", model.WorkPattern{"D", "D", "N", "N", "O", "O"}, 5},
		{"all work", model.WorkPattern{"D", "D"}, 7},
		{"half", model.WorkPattern{"D", "O"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pattern.WorkDaysPerWeek())
		})
	}
}

func TestWorkPatternPositionFor(t *testing.T) {
	p := model.WorkPattern{"D", "D", "N", "N", "O", "O"}
	anchor := date(2026, 3, 1)

	assert.Equal(t, 0, p.PositionFor(anchor, anchor, 0))
	assert.Equal(t, 3, p.PositionFor(anchor, date(2026, 3, 4), 0))
	assert.Equal(t, 0, p.PositionFor(anchor, date(2026, 3, 7), 0))

	// Rotation offset shifts the position.
	assert.Equal(t, 1, p.PositionFor(anchor, anchor, 1))
	assert.Equal(t, 5, p.PositionFor(anchor, anchor, 5))
	assert.Equal(t, 0, p.PositionFor(anchor, anchor, 6))

	// Dates before the anchor wrap around, never negative.
	assert.Equal(t, 5, p.PositionFor(anchor, date(2026, 2, 28), 0))
}

func TestWorkPatternShiftCodeFor(t *testing.T) {
	p := model.WorkPattern{"D", "D", "N", "N", "O", "O"}
	anchor := date(2026, 3, 1)

	assert.Equal(t, "D", p.ShiftCodeFor(anchor, date(2026, 3, 2), 0))
	assert.Equal(t, "N", p.ShiftCodeFor(anchor, date(2026, 3, 3), 0))
	assert.Equal(t, model.OffMarker, p.ShiftCodeFor(anchor, date(2026, 3, 5), 0))
	assert.True(t, p.IsWorkDate(anchor, date(2026, 3, 1), 0))
	assert.False(t, p.IsWorkDate(anchor, date(2026, 3, 5), 0))
}
