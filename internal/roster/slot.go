// Package roster contains the solving core of the engine: slot enumeration,
// the capacity preprocessor, the labour-law constraint library, template
// replication, the orchestrator pipeline, and the output assembler.
package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/timeutil"
)

// Slot is one atomic coverage need in demand-based mode: exactly one employee,
// or none, fills it.
type Slot struct {
	ID            string
	DemandID      string
	RequirementID string
	Date          time.Time
	ShiftCode     string
	Position      int
}

// slotID derives the stable identifier. Identical input yields identical ids
// across runs.
func slotID(demandID, requirementID, shiftCode string, date time.Time, position int) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d",
		demandID, requirementID, shiftCode, timeutil.FormatDate(date), position)
}

// coverageCodes returns the shift codes a requirement must cover each day:
// the declared shiftCodes, or the distinct working entries of the pattern
// when no codes are declared.
func coverageCodes(req *model.Requirement) []string {
	if len(req.ShiftCodes) > 0 {
		return req.ShiftCodes
	}
	seen := make(map[string]struct{})
	var codes []string
	for _, entry := range req.Pattern {
		if entry == model.OffMarker {
			continue
		}
		if _, ok := seen[entry]; !ok {
			seen[entry] = struct{}{}
			codes = append(codes, entry)
		}
	}
	return codes
}

// BuildSlots enumerates (date x shift x position) coverage tuples for every
// requirement of every demand item, clipped to the planning horizon. Output
// is sorted by (date, shift code, slot id) so downstream iteration is
// deterministic.
func BuildSlots(items []model.DemandItem, horizon model.Horizon) []Slot {
	var slots []Slot
	for i := range items {
		item := &items[i]
		start := timeutil.Truncate(time.Time(item.Range.StartDate))
		end := timeutil.Truncate(time.Time(item.Range.EndDate))
		if start.Before(horizon.Start()) {
			start = horizon.Start()
		}
		if end.After(horizon.End()) {
			end = horizon.End()
		}
		for _, date := range timeutil.DatesBetween(start, end) {
			for j := range item.Requirements {
				req := &item.Requirements[j]
				for _, code := range coverageCodes(req) {
					for pos := 0; pos < req.HeadcountPerShift; pos++ {
						slots = append(slots, Slot{
							ID:            slotID(item.ID, req.ID, code, date, pos),
							DemandID:      item.ID,
							RequirementID: req.ID,
							Date:          date,
							ShiftCode:     code,
							Position:      pos,
						})
					}
				}
			}
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		if slots[i].ShiftCode != slots[j].ShiftCode {
			return slots[i].ShiftCode < slots[j].ShiftCode
		}
		return slots[i].ID < slots[j].ID
	})
	return slots
}
